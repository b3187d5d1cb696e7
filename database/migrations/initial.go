package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_users_table", &createTable{model: &models.User{}, table: "users"})
	migration.Register("20260101000001_create_medicines_table", &createTable{model: &models.Medicine{}, table: "medicines"})
	migration.Register("20260101000002_create_checkups_table", &createTable{model: &models.Checkup{}, table: "checkups"})
	migration.Register("20260101000003_create_leads_table", &createTable{model: &models.Lead{}, table: "leads"})
	migration.Register("20260101000004_index_created_at", &createdAtIndexes{})
}

// createTable migrates one model's table from its gorm tags.
type createTable struct {
	model any
	table string
}

func (m *createTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.model)
}

func (m *createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.table)
}

// createdAtIndexes backs the newest-first listings.
type createdAtIndexes struct{}

var createdAtTables = []string{"users", "medicines", "checkups", "leads"}

func (createdAtIndexes) Up(db *gorm.DB) error {
	for _, table := range createdAtTables {
		name := "idx_" + table + "_created_at"
		if db.Migrator().HasIndex(table, name) {
			continue
		}
		if err := db.Exec("CREATE INDEX " + name + " ON " + table + " (created_at)").Error; err != nil {
			return err
		}
	}
	return nil
}

func (createdAtIndexes) Down(db *gorm.DB) error {
	for _, table := range createdAtTables {
		name := "idx_" + table + "_created_at"
		if !db.Migrator().HasIndex(table, name) {
			continue
		}
		if err := db.Migrator().DropIndex(table, name); err != nil {
			return err
		}
	}
	return nil
}
