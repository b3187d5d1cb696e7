package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/app/repositories/storetest"
	"github.com/shashiranjanraj/medstore/pkg/database"
)

// Set MONGO_TEST_URI to run against a live server, e.g.
// mongodb://localhost:27017/?replicaSet=rs0 for the transaction subtest.
func TestStoreOnMongo(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	n := 0
	storetest.Run(t, func(t *testing.T) repositories.Store {
		n++
		ctx := context.Background()
		name := fmt.Sprintf("medstore_test_%d_%d", time.Now().UnixNano(), n)

		client, db, err := database.OpenMongo(ctx, uri, name, 5*time.Second)
		require.NoError(t, err)

		s := New(client, db, os.Getenv("MONGO_TEST_TRANSACTIONS") == "true")
		require.NoError(t, s.EnsureIndexes(ctx))

		t.Cleanup(func() {
			_ = db.Drop(context.Background())
			_ = s.Close(context.Background())
		})
		return s
	})
}
