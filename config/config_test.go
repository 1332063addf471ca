package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DATABASE_DSN", "BODY_LIMIT_BYTES", "BODY_LIMIT_MB", "OVERDUE_SWEEP_INTERVAL", "RATE_LIMIT_MAX"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 4*1024*1024, cfg.BodyLimitBytes)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
	assert.Zero(t, cfg.OverdueSweepInterval)
	assert.Contains(t, cfg.DatabaseDSN, "dbname=billing")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("BODY_LIMIT_BYTES", "")
	t.Setenv("BODY_LIMIT_MB", "2")
	t.Setenv("OVERDUE_SWEEP_INTERVAL", "90m")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("RATE_LIMIT_MAX", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "billing.db", cfg.DatabaseDSN)
	assert.Equal(t, 2*1024*1024, cfg.BodyLimitBytes)
	assert.Equal(t, 90*time.Minute, cfg.OverdueSweepInterval)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Zero(t, cfg.RateLimitMax)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("OVERDUE_SWEEP_INTERVAL", "soon")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("OVERDUE_SWEEP_INTERVAL", "-1h")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	lc := cfg.LoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, cfg.LogFormat, lc.Format)
}
