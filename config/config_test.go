package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "moviecatalog", cfg.Mongo.Database)
	assert.True(t, cfg.Mongo.Transactions)
	assert.Equal(t, 50*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "none", cfg.Storage.Provider)
	assert.Equal(t, int64(5<<20), cfg.Storage.MaxUploadBytes())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	setRequiredEnv(t)
	t.Setenv("DATABASE_NAME", "films")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, https://movies.example.com")
	t.Setenv("MONGO_TRANSACTIONS", "false")
	t.Setenv("RATE_LIMIT_CAPACITY", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "films", cfg.Mongo.Database)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"http://localhost:5173", "https://movies.example.com"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Mongo.Transactions)
	assert.Equal(t, 3, cfg.RateLimit.Capacity)
}

func TestLoad_ConfigFileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	setRequiredEnv(t)

	yml := "server:\n  port: 9000\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingSecrets(t *testing.T) {
	chdirTemp(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.access_secret")
}

func TestValidate_Storage(t *testing.T) {
	cfg := defaultConfig()
	cfg.Mongo.URI = "mongodb://localhost"
	cfg.Auth.AccessSecret = "a"
	cfg.Auth.RefreshSecret = "b"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Provider = "s3"
	assert.Error(t, cfg.Validate())

	cfg.Storage.Bucket = "posters"
	cfg.Storage.AccessKeyID = "id"
	cfg.Storage.SecretAccessKey = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Provider = "ftp"
	assert.Error(t, cfg.Validate())
}

func TestValidate_DemoSeedNeedsPassword(t *testing.T) {
	cfg := defaultConfig()
	cfg.Mongo.URI = "mongodb://localhost"
	cfg.Auth.AccessSecret = "a"
	cfg.Auth.RefreshSecret = "b"
	cfg.Seed.DemoData = true
	require.NoError(t, cfg.Validate())

	cfg.Seed.DemoPassword = " "
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed.demo_password")

	cfg.Seed.DemoData = false
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DemoSeedWithoutPassword(t *testing.T) {
	chdirTemp(t)
	setRequiredEnv(t)
	t.Setenv("SEED_DEMO_DATA", "true")
	t.Setenv("SEED_DEMO_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed.demo_password")
}
