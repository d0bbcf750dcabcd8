package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/binomes")
	t.Setenv("ADMIN_TELEGRAM_ID", "42")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load()

		require.NoError(t, err)
		require.Equal(t, int64(42), cfg.AdminTelegramID)
		require.Equal(t, "info", cfg.LogLevel)
		require.Equal(t, "development", cfg.Environment)
		require.Equal(t, "@every 1h", cfg.CronSpecRotationSweep)
		require.Equal(t, 90, cfg.AttendanceWindowDays)
		require.Equal(t, 12, cfg.ForbiddenLookbackMonths)
		require.Equal(t, 3, cfg.RotationIntervalMonths)
		require.Equal(t, 10, cfg.DBMaxOpenConns)
		require.Equal(t, 5, cfg.DBMaxIdleConns)
		require.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
		require.Equal(t, 5*time.Minute, cfg.DBConnMaxIdleTime)
		require.Equal(t, ":9090", cfg.MetricsAddr)
		require.True(t, cfg.RunMigrations)
		require.True(t, cfg.SweepOnStart)
	})

	t.Run("overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("ATTENDANCE_WINDOW_DAYS", "30")
		t.Setenv("METRICS_ADDR", "")
		t.Setenv("SWEEP_ON_START", "false")
		t.Setenv("ROTATION_INTERVAL_MONTHS", "6")
		t.Setenv("DB_MAX_OPEN_CONNS", "4")
		t.Setenv("DB_CONN_MAX_LIFETIME", "90s")

		cfg, err := Load()

		require.NoError(t, err)
		require.Equal(t, "debug", cfg.LogLevel)
		require.Equal(t, 30, cfg.AttendanceWindowDays)
		require.Equal(t, 6, cfg.RotationIntervalMonths)
		require.Equal(t, 4, cfg.DBMaxOpenConns)
		require.Equal(t, 90*time.Second, cfg.DBConnMaxLifetime)
		require.Empty(t, cfg.MetricsAddr)
		require.False(t, cfg.SweepOnStart)
	})

	t.Run("missing token", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TELEGRAM_TOKEN", "")

		_, err := Load()

		require.Error(t, err)
		require.Contains(t, err.Error(), "TELEGRAM_TOKEN")
	})

	t.Run("invalid admin id", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ADMIN_TELEGRAM_ID", "abc")

		_, err := Load()

		require.Error(t, err)
		require.Contains(t, err.Error(), "ADMIN_TELEGRAM_ID")
	})

	t.Run("non positive window", func(t *testing.T) {
		setRequired(t)
		t.Setenv("FORBIDDEN_LOOKBACK_MONTHS", "0")

		_, err := Load()

		require.Error(t, err)
		require.Contains(t, err.Error(), "FORBIDDEN_LOOKBACK_MONTHS")
	})

	t.Run("invalid pool lifetime", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DB_CONN_MAX_LIFETIME", "soon")

		_, err := Load()

		require.Error(t, err)
		require.Contains(t, err.Error(), "DB_CONN_MAX_LIFETIME")
	})
}
