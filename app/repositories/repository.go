// Package repositories defines the persistence contracts the services use.
// Drivers live in the mongostore, sqlstore and memstore subpackages.
package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/medstore/app/models"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (username, medicine name,
	// lead contact key) is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	Create(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

type MedicineRepository interface {
	List(ctx context.Context, f models.MedicineFilter) ([]models.Medicine, error)
	FindByID(ctx context.Context, id string) (models.Medicine, error)
	Create(ctx context.Context, m *models.Medicine) error
	Update(ctx context.Context, m *models.Medicine) error
	// UpsertByName applies the rows in order, inserting or replacing by
	// name. A later row with the same name overwrites an earlier one.
	UpsertByName(ctx context.Context, rows []models.Medicine) (int, error)
}

type CheckupRepository interface {
	List(ctx context.Context) ([]models.Checkup, error)
	Create(ctx context.Context, c *models.Checkup) error
}

type LeadRepository interface {
	List(ctx context.Context, status string) ([]models.Lead, error)
	FindByID(ctx context.Context, id string) (models.Lead, error)
	FindByContactKey(ctx context.Context, key string) (models.Lead, error)
	// Insert stores l only if no lead owns l.ContactKey; otherwise it
	// returns ErrDuplicate and stores nothing.
	Insert(ctx context.Context, l *models.Lead) error
	Update(ctx context.Context, l *models.Lead) error
	Delete(ctx context.Context, id string) error
}

// Store groups the repositories of one driver. WithTx runs fn against a
// Store bound to a single transaction, committing when fn returns nil.
type Store interface {
	Users() UserRepository
	Medicines() MedicineRepository
	Checkups() CheckupRepository
	Leads() LeadRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewID returns a new record id. Every driver uses ObjectID hex so records
// move between drivers unchanged.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
