package seeders

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories/memstore"
)

func TestRunAllSeedsUsersOnce(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	var out bytes.Buffer
	require.NoError(t, RunAll(ctx, store, &out))
	require.NoError(t, RunAll(ctx, store, &out))

	assert.Contains(t, out.String(), "Running seeder: users")

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	admins, err := store.Users().CountByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
}

func TestUsersSeederIsRegistered(t *testing.T) {
	assert.Contains(t, Names(), "users")
}
