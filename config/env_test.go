package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFilesMergesJSONThenDotEnv(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"app_port": 7000, "db_driver": "sqlite", "mongo_transactions": true}`), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nDB_DRIVER=postgres\nJWT_SECRET=\"from-dotenv\"\n"), 0o644))

	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})

	require.NoError(t, loadFromFiles(jsonPath, envPath))

	assert.Equal(t, "7000", get("APP_PORT", ""))
	assert.Equal(t, "postgres", get("DB_DRIVER", ""))
	assert.Equal(t, "from-dotenv", get("JWT_SECRET", ""))
	assert.Equal(t, "true", get("MONGO_TRANSACTIONS", ""))
}

func TestLoadFromFilesToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})

	require.NoError(t, loadFromFiles(filepath.Join(dir, "nope.json"), filepath.Join(dir, "nope.env")))
	assert.Equal(t, defaultAppPort, get("APP_PORT", ""))
}

func TestProcessEnvironmentWins(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	assert.Equal(t, "9999", AppPort())
}

func TestTypedAccessorsFallBackOnGarbage(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("LOW_STOCK_THRESHOLD", "ten")
	t.Setenv("MONGO_TRANSACTIONS", "maybe")

	assert.Equal(t, 24*time.Hour, JWTTTL())
	assert.Equal(t, 10, LowStockThreshold())
	assert.False(t, MongoTransactions())
}

func TestDatabaseDSNFollowsDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	assert.Equal(t, defaultMySQLDSN, DatabaseDSN())

	t.Setenv("DATABASE_DSN", "custom")
	assert.Equal(t, "custom", DatabaseDSN())
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "oracle")

	err := Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "oracle")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "memory")
	assert.NoError(t, Validate())
}

func TestCORSOriginsSplits(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, CORSOrigins())
}

func TestTrustedProxiesDefaultsToNone(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	assert.Empty(t, TrustedProxies())

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, TrustedProxies())
}
