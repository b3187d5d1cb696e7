package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/app/repositories/storetest"
	_ "github.com/shashiranjanraj/medstore/database/migrations"
	"github.com/shashiranjanraj/medstore/pkg/database"
	"github.com/shashiranjanraj/medstore/pkg/migration"
)

func TestStoreOnSQLite(t *testing.T) {
	n := 0
	storetest.Run(t, func(t *testing.T) repositories.Store {
		n++
		dsn := filepath.Join(t.TempDir(), fmt.Sprintf("medstore-%d.db", n))
		db, err := database.OpenSQL("sqlite", dsn)
		if err != nil {
			t.Skipf("sqlite unavailable: %v", err)
		}
		_, err = migration.New(db).Run()
		require.NoError(t, err)

		s := New(db)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	})
}

func TestMigrationsRollBack(t *testing.T) {
	db, err := database.OpenSQL("sqlite", filepath.Join(t.TempDir(), "rollback.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}

	runner := migration.New(db)
	ran, err := runner.Run()
	require.NoError(t, err)
	require.Len(t, ran, 5)

	again, err := runner.Run()
	require.NoError(t, err)
	require.Empty(t, again)

	statuses, err := runner.Status()
	require.NoError(t, err)
	for _, s := range statuses {
		require.True(t, s.Ran, s.Name)
		require.Equal(t, 1, s.Batch)
	}

	undone, err := runner.Rollback()
	require.NoError(t, err)
	require.Len(t, undone, 5)
	require.False(t, db.Migrator().HasTable("leads"))
}
