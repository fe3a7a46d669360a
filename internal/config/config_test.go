package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"JWT_SECRET_KEY": "secret",
		"STORE_DRIVER":   "memory",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Engine.StoreDriver)
	assert.Equal(t, time.Minute, cfg.Engine.ReconcileInterval)
	assert.Equal(t, 5*time.Minute, cfg.Engine.IdleThreshold)
	assert.Equal(t, 30*time.Second, cfg.Engine.StreamKeepalive)
	assert.Equal(t, 12*time.Hour, cfg.JWT.AccessExpiration)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.AllowedOrigins)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"JWT_SECRET_KEY":     "secret",
		"STORE_DRIVER":       "Postgres",
		"DB_PASSWORD":        "pw",
		"DB_HOST":            "db",
		"IDLE_THRESHOLD":     "90s",
		"ALLOWED_ORIGINS":    "https://a.example, https://b.example",
		"DEFAULT_TIMEZONE":   "Asia/Jakarta",
		"REDIS_ADDR":         "redis:6379",
		"LOG_LEVEL":          "debug",
		"WORKER_CONCURRENCY": "2",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Engine.StoreDriver)
	assert.Equal(t, 90*time.Second, cfg.Engine.IdleThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 2, cfg.Engine.WorkerConcurrency)
	assert.Equal(t, "postgres://postgres:pw@db:5432/timeclock?sslmode=disable", cfg.DatabaseURL())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"STORE_DRIVER": "memory"}},
		{"unknown driver", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "sqlite"}},
		{"postgres without password", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "postgres"}},
		{"bad duration", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "memory", "RECONCILE_INTERVAL": "soon"}},
		{"bad timezone", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "memory", "DEFAULT_TIMEZONE": "Mars/Base"}},
		{"bad port", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "memory", "APP_PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "")
			t.Setenv("DB_PASSWORD", "")
			setEnv(t, tt.env)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel_Fallback(t *testing.T) {
	cfg := &Config{App: AppConfig{LogLevel: "loud"}}
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
