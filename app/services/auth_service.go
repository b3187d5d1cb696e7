package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/pkg/auth"
	"github.com/shashiranjanraj/medstore/pkg/metrics"
)

type AuthService struct {
	store  repositories.Store
	signer *auth.Signer
	seed   SeedPasswords
}

// SeedPasswords are the initial passwords of the default accounts.
type SeedPasswords struct {
	Admin string
	Staff string
}

func NewAuthService(store repositories.Store, signer *auth.Signer, seed SeedPasswords) *AuthService {
	return &AuthService{store: store, signer: signer, seed: seed}
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login returns repositories.ErrNotFound for an unknown username and
// ErrInvalidCredentials for a wrong password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	u, err := s.store.Users().FindByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("unknown_user").Inc()
		}
		return LoginResult{}, err
	}

	if !auth.CheckPassword(u.Password, in.Password) {
		metrics.LoginAttempts.WithLabelValues("bad_password").Inc()
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.signer.GenerateToken(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return LoginResult{Token: token, User: u}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	return s.store.Users().FindByID(ctx, userID)
}

// Seed creates the admin and staff accounts unless an admin already exists.
// It reports whether anything was created.
func (s *AuthService) Seed(ctx context.Context) (bool, error) {
	created := false
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		admins, err := tx.Users().CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return err
		}
		if admins > 0 {
			return nil
		}

		accounts := []struct{ username, password, role string }{
			{"admin", s.seed.Admin, models.RoleAdmin},
			{"staff", s.seed.Staff, models.RoleEmployee},
		}
		for _, a := range accounts {
			hash, err := auth.HashPassword(a.password)
			if err != nil {
				return err
			}
			err = tx.Users().Create(ctx, &models.User{Username: a.username, Password: hash, Role: a.role})
			if errors.Is(err, repositories.ErrDuplicate) && a.role != models.RoleAdmin {
				continue
			}
			if err != nil {
				return fmt.Errorf("seed %s: %w", a.username, err)
			}
		}
		created = true
		return nil
	})
	return created, err
}
