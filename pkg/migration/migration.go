// Package migration runs versioned schema changes against the SQL drivers.
//
// Migrations register themselves from init():
//
//	func init() {
//	    migration.Register("20260101000000_create_users_table", &CreateUsersTable{})
//	}
//
// and run from the CLI:
//
//	medstore migrate             // run all pending
//	medstore migrate:rollback    // roll back the last batch
//	medstore migrate:status
package migration

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/medstore/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// record is the row stored in the tracking table.
type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "schema_migrations" }

// Entry is a named migration.
type Entry struct {
	Name string
	M    Migration
}

// Status reports whether one migration has been applied.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// ErrNoMigrations is returned when Run is called with an empty registry.
var ErrNoMigrations = errors.New("no migrations registered")

var (
	regMu    sync.Mutex
	registry []Entry
)

// Register adds a migration to the global registry. Names are timestamp
// prefixed so they sort chronologically.
func Register(name string, m Migration) {
	regMu.Lock()
	defer regMu.Unlock()
	registry = append(registry, Entry{Name: name, M: m})
}

// Registered returns the global registry sorted by name.
func Registered() []Entry {
	regMu.Lock()
	out := append([]Entry(nil), registry...)
	regMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Runner executes and tracks migrations.
type Runner struct {
	db      *gorm.DB
	entries []Entry
}

// New creates a Runner over entries; with none it uses the global registry.
func New(db *gorm.DB, entries ...Entry) *Runner {
	if len(entries) == 0 {
		entries = Registered()
	} else {
		entries = append([]Entry(nil), entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	}
	return &Runner{db: db, entries: entries}
}

func (r *Runner) ensureTable() error {
	if err := r.db.AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) applied() (map[string]record, error) {
	var ran []record
	if err := r.db.Find(&ran).Error; err != nil {
		return nil, fmt.Errorf("migration: load applied: %w", err)
	}
	out := make(map[string]record, len(ran))
	for _, rec := range ran {
		out[rec.Name] = rec
	}
	return out, nil
}

// Run applies every pending migration in one batch and returns the names it
// ran. Each migration and its tracking row commit together.
func (r *Runner) Run() ([]string, error) {
	if len(r.entries) == 0 {
		return nil, ErrNoMigrations
	}
	if err := r.ensureTable(); err != nil {
		return nil, err
	}

	done, err := r.applied()
	if err != nil {
		return nil, err
	}

	batch := r.lastBatch() + 1
	var ran []string
	for _, e := range r.entries {
		if _, ok := done[e.Name]; ok {
			continue
		}

		logger.Info("migration: running", "name", e.Name, "batch", batch)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := e.M.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: e.Name, Batch: batch}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration: %s up: %w", e.Name, err)
		}
		ran = append(ran, e.Name)
	}

	logger.Info("migration: done", "ran", len(ran))
	return ran, nil
}

// Rollback reverses the most recent batch and returns the names it undid.
func (r *Runner) Rollback() ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}

	last := r.lastBatch()
	if last == 0 {
		return nil, nil
	}

	var records []record
	if err := r.db.Where("batch = ?", last).Order("id desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("migration: load batch %d: %w", last, err)
	}

	byName := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		byName[e.Name] = e.M
	}

	var undone []string
	for _, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return undone, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}

		logger.Info("migration: rolling back", "name", rec.Name)
		rec := rec
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&rec).Error
		})
		if err != nil {
			return undone, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		undone = append(undone, rec.Name)
	}

	return undone, nil
}

// Status lists every known migration with its applied state.
func (r *Runner) Status() ([]Status, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.applied()
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		rec, ok := done[e.Name]
		out = append(out, Status{Name: e.Name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch() int {
	var max struct{ Max int }
	r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&max)
	return max.Max
}
