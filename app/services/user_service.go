package services

import (
	"context"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/pkg/auth"
	"github.com/shashiranjanraj/medstore/pkg/validate"
)

type UserService struct {
	store repositories.Store
}

func NewUserService(store repositories.Store) *UserService {
	return &UserService{store: store}
}

type CreateUserInput struct {
	Username string `json:"username" validate:"required,max=100,regex=^[A-Za-z0-9._@-]+$"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"nullable,in=admin,employee"`
}

type PasswordInput struct {
	Password string `json:"password" validate:"required,min=6"`
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.Users().List(ctx)
}

// Create returns repositories.ErrDuplicate when the username is taken.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		return models.User{}, &ValidationError{Fields: errs}
	}
	if !models.ValidRole(in.Role) {
		return models.User{}, invalid("role", "The selected role is invalid.")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{Username: in.Username, Password: hash, Role: in.Role}
	if err := s.store.Users().Create(ctx, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Delete refuses to remove the last admin.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx repositories.Store) error {
		u, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u.IsAdmin() {
			n, err := tx.Users().CountByRole(ctx, models.RoleAdmin)
			if err != nil {
				return err
			}
			if n <= 1 {
				return ErrLastAdmin
			}
		}
		return tx.Users().Delete(ctx, id)
	})
}

func (s *UserService) UpdatePassword(ctx context.Context, id string, in PasswordInput) error {
	if errs := validate.Struct(in); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return err
	}
	return s.store.Users().UpdatePassword(ctx, id, hash)
}
