package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "timesheet", cfg.Database.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 6*time.Hour, cfg.Timesheet.AutoCheckoutAfter)
	assert.False(t, cfg.Timesheet.SweepEnabled)
	assert.Equal(t, 15*time.Minute, cfg.Timesheet.SweepInterval)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Notification.Workers)
	assert.Equal(t, 256, cfg.Notification.QueueSize)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMESHEET_AUTO_CHECKOUT_AFTER", "8h")
	t.Setenv("TIMESHEET_SWEEP_ENABLED", "true")
	t.Setenv("TIMESHEET_SWEEP_INTERVAL", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8*time.Hour, cfg.Timesheet.AutoCheckoutAfter)
	assert.True(t, cfg.Timesheet.SweepEnabled)
	assert.Equal(t, time.Minute, cfg.Timesheet.SweepInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMESHEET_AUTO_CHECKOUT_AFTER", "six hours")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMESHEET_AUTO_CHECKOUT_AFTER")
}

func TestValidate_NonPositiveThreshold(t *testing.T) {
	cfg := &Config{
		Database:  DatabaseConfig{Password: "x"},
		JWT:       JWTConfig{Secret: "y"},
		Timesheet: TimesheetConfig{AutoCheckoutAfter: 0},
		RateLimit: RateLimitConfig{PerSecond: 1, Burst: 1},
	}
	assert.Error(t, cfg.Validate())
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Name: "timesheet", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://u:p@db:5432/timesheet?sslmode=disable", cfg.DatabaseURL())
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{App: AppConfig{LogLevel: "debug"}}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{App: AppConfig{LogLevel: "nonsense"}}).SlogLevel())
}
