package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	//空文字は未設定として扱われる
	for _, k := range []string{"APP_CONFIG", "PORT", "CACHE_STALE_TIME", "CACHE_RETRY", "CACHE_SERVE_STALE", "ORDER_ALLOW_CANCEL_AFTER_PAID", "SHIPPING_FLAT_RATE", "SMTP_HOST"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Cache.StaleTime)
	assert.Equal(t, 1, cfg.Cache.Retry)
	assert.True(t, cfg.Order.AllowCancelAfterPaid)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", ":9000")
	t.Setenv("CACHE_STALE_TIME", "30s")
	t.Setenv("CACHE_RETRY", "3")
	t.Setenv("CACHE_SERVE_STALE", "true")
	t.Setenv("ORDER_ALLOW_CANCEL_AFTER_PAID", "false")
	t.Setenv("SHIPPING_FLAT_RATE", "12.50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 30*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, 3, cfg.Cache.Retry)
	assert.True(t, cfg.Cache.ServeStale)
	assert.False(t, cfg.Order.AllowCancelAfterPaid)
	assert.Equal(t, "12.5", cfg.Shipping.FlatRate.String())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	setBaseEnv(t)

	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\ncache:\n  retry: 4\nmail:\n  host: smtp.example.com\n"), 0o600))
	t.Setenv("APP_CONFIG", path)
	t.Setenv("CACHE_RETRY", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 2, cfg.Cache.Retry)
	assert.True(t, cfg.Mail.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CACHE_RETRY", "many")
	_, err := Load()
	assert.ErrorContains(t, err, "CACHE_RETRY")

	setBaseEnv(t)
	t.Setenv("CACHE_RETRY", "1")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "x")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_DRIVER")
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())

	c.URL = "postgres://x"
	assert.Equal(t, "postgres://x", c.DSN())
}
