package seeders

import (
	"context"

	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/config"
	"github.com/shashiranjanraj/medstore/pkg/logger"
)

func init() {
	Register("users", SeedUsers)
}

// SeedUsers creates the default admin and staff accounts unless an admin
// already exists.
func SeedUsers(ctx context.Context, store repositories.Store) error {
	svc := services.NewAuthService(store, nil, services.SeedPasswords{
		Admin: config.SeedAdminPassword(),
		Staff: config.SeedStaffPassword(),
	})
	created, err := svc.Seed(ctx)
	if err != nil {
		return err
	}
	if !created {
		logger.Info("seed: admin already present, users left unchanged")
	}
	return nil
}
