// Package sqlstore implements the repositories on gorm for the sqlite,
// postgres, mysql and sqlserver drivers.
package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/pkg/metrics"
)

type Store struct {
	db *gorm.DB
}

var _ repositories.Store = (*Store)(nil)

// New wraps an open connection. The schema must already be migrated.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() repositories.UserRepository         { return userRepo{s.db} }
func (s *Store) Medicines() repositories.MedicineRepository { return medicineRepo{s.db} }
func (s *Store) Checkups() repositories.CheckupRepository   { return checkupRepo{s.db} }
func (s *Store) Leads() repositories.LeadRepository         { return leadRepo{s.db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate entry") {
		return repositories.ErrDuplicate
	}
	return err
}

func observe(op string, start time.Time) {
	metrics.ObserveDBQuery("sql."+op, start)
}

const newestFirst = "created_at desc, id desc"

// ─── users ────────────────────────────────────────────────────────────────────

type userRepo struct{ db *gorm.DB }

func (r userRepo) List(ctx context.Context) ([]models.User, error) {
	defer observe("users.list", time.Now())
	var out []models.User
	err := r.db.WithContext(ctx).Order(newestFirst).Find(&out).Error
	return out, translate(err)
}

func (r userRepo) FindByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return u, translate(err)
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	defer observe("users.find", time.Now())
	var u models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return u, translate(err)
}

func (r userRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&n).Error
	return n, translate(err)
}

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	defer observe("users.create", time.Now())
	if u.ID == "" {
		u.ID = repositories.NewID()
	}
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r userRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"password": hash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ─── medicines ────────────────────────────────────────────────────────────────

type medicineRepo struct{ db *gorm.DB }

func (r medicineRepo) List(ctx context.Context, f models.MedicineFilter) ([]models.Medicine, error) {
	defer observe("medicines.list", time.Now())
	q := r.db.WithContext(ctx).Order(newestFirst)
	if f.Query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Query)+"%")
	}
	if f.LowStock {
		q = q.Where("quantity < ?", f.Below)
	}
	var out []models.Medicine
	return out, translate(q.Find(&out).Error)
}

func (r medicineRepo) FindByID(ctx context.Context, id string) (models.Medicine, error) {
	var m models.Medicine
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	return m, translate(err)
}

func (r medicineRepo) Create(ctx context.Context, m *models.Medicine) error {
	defer observe("medicines.create", time.Now())
	if m.ID == "" {
		m.ID = repositories.NewID()
	}
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r medicineRepo) Update(ctx context.Context, m *models.Medicine) error {
	defer observe("medicines.update", time.Now())
	var old models.Medicine
	if err := r.db.WithContext(ctx).Select("id", "created_at").Where("id = ?", m.ID).First(&old).Error; err != nil {
		return translate(err)
	}
	m.CreatedAt = old.CreatedAt
	return translate(r.db.WithContext(ctx).Save(m).Error)
}

// UpsertByName writes rows one at a time so that a later duplicate name
// overwrites an earlier one within the same import.
func (r medicineRepo) UpsertByName(ctx context.Context, rows []models.Medicine) (int, error) {
	defer observe("medicines.upsert", time.Now())
	for i := range rows {
		row := rows[i]
		var existing models.Medicine
		err := r.db.WithContext(ctx).Select("id", "created_at").Where("name = ?", row.Name).First(&existing).Error
		switch {
		case err == nil:
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
			err = r.db.WithContext(ctx).Save(&row).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			row.ID = repositories.NewID()
			err = r.db.WithContext(ctx).Create(&row).Error
		}
		if err != nil {
			return i, translate(err)
		}
	}
	return len(rows), nil
}

// ─── checkups ─────────────────────────────────────────────────────────────────

type checkupRepo struct{ db *gorm.DB }

func (r checkupRepo) List(ctx context.Context) ([]models.Checkup, error) {
	defer observe("checkups.list", time.Now())
	var out []models.Checkup
	return out, translate(r.db.WithContext(ctx).Order(newestFirst).Find(&out).Error)
}

func (r checkupRepo) Create(ctx context.Context, c *models.Checkup) error {
	defer observe("checkups.create", time.Now())
	if c.ID == "" {
		c.ID = repositories.NewID()
	}
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

// ─── leads ────────────────────────────────────────────────────────────────────

type leadRepo struct{ db *gorm.DB }

func (r leadRepo) List(ctx context.Context, status string) ([]models.Lead, error) {
	defer observe("leads.list", time.Now())
	q := r.db.WithContext(ctx).Order(newestFirst)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Lead
	return out, translate(q.Find(&out).Error)
}

func (r leadRepo) FindByID(ctx context.Context, id string) (models.Lead, error) {
	var l models.Lead
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	return l, translate(err)
}

func (r leadRepo) FindByContactKey(ctx context.Context, key string) (models.Lead, error) {
	defer observe("leads.find_contact", time.Now())
	var l models.Lead
	err := r.db.WithContext(ctx).Where("contact_key = ?", key).First(&l).Error
	return l, translate(err)
}

// Insert relies on the unique contact_key index: a conflicting row is
// skipped and reported as ErrDuplicate.
func (r leadRepo) Insert(ctx context.Context, l *models.Lead) error {
	defer observe("leads.insert", time.Now())
	if l.ID == "" {
		l.ID = repositories.NewID()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "contact_key"}}, DoNothing: true}).
		Create(l)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		l.ID = ""
		return repositories.ErrDuplicate
	}
	return nil
}

func (r leadRepo) Update(ctx context.Context, l *models.Lead) error {
	defer observe("leads.update", time.Now())
	var old models.Lead
	if err := r.db.WithContext(ctx).Select("id", "created_at").Where("id = ?", l.ID).First(&old).Error; err != nil {
		return translate(err)
	}
	l.CreatedAt = old.CreatedAt
	return translate(r.db.WithContext(ctx).Save(l).Error)
}

func (r leadRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Lead{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
