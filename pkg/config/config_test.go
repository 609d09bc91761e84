package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/library/pkg/config"
)

var keys = []string{
	"CONFIG_FILE", "PORT", "STORE", "DATABASE_URL", "DB_MAX_CONNS", "JWT_SECRET", "JWT_ISSUER",
	"ACCESS_TOKEN_EXPIRES_IN", "BCRYPT_COST", "ROLE_POLICY", "CLIENT_ORIGIN", "LENDING_MODE",
	"LOAN_LIMIT", "LOAN_LIMIT_SCOPE", "RECOMMEND_LIMIT", "LOCK_BACKEND", "REDIS_URL",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every key; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 3, cfg.LoanLimit)
	assert.Equal(t, 15, cfg.RecommendLimit)
	assert.Equal(t, "hardened", cfg.LendingMode)
	assert.Equal(t, "any", cfg.RolePolicy)
	assert.Equal(t, config.LockNone, cfg.LockBackend)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/library")
	t.Setenv("ACCESS_TOKEN_EXPIRES_IN", "30")
	t.Setenv("LOAN_LIMIT", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOCK_BACKEND", "Local")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StorePostgres, cfg.Store)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 3, cfg.LoanLimit, "malformed numbers keep the default")
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, config.LockLocal, cfg.LockBackend)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
store: memory
lending_mode: legacy
loan_limit: 4
role_policy: all
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOAN_LIMIT", "6")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "legacy", cfg.LendingMode)
	assert.Equal(t, "all", cfg.RolePolicy)
	assert.Equal(t, 6, cfg.LoanLimit, "env wins over the file")
	assert.Equal(t, 15, cfg.RecommendLimit, "unset file keys keep defaults")
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"memory store", func(c *config.Config) { c.Store = config.StoreMemory }, false},
		{"postgres without dsn", func(c *config.Config) {}, true},
		{"unknown store", func(c *config.Config) { c.Store = "mongo" }, true},
		{"redis without url", func(c *config.Config) {
			c.Store = config.StoreMemory
			c.LockBackend = config.LockRedis
		}, true},
		{"unknown lock", func(c *config.Config) {
			c.Store = config.StoreMemory
			c.LockBackend = "etcd"
		}, true},
		{"empty secret", func(c *config.Config) {
			c.Store = config.StoreMemory
			c.JWTSecret = ""
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
