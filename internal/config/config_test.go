package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	o := Default()

	assert.Equal(t, ":3000", o.Port)
	assert.Equal(t, "info", o.LogLevel)
	assert.Equal(t, "localhost:6379", o.RedisAddr)
	assert.Equal(t, "bikeguard:alerts", o.AlertChannel)
	assert.Equal(t, 587, o.SMTPPort)
	assert.Positive(t, o.QueueSize)
	assert.Positive(t, o.Workers)
	assert.Contains(t, o.AllowedOrigins, "http://localhost:3000")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is ignored", func(t *testing.T) {
		o := Default()
		require.NoError(t, loadFile(filepath.Join(dir, "nope.json"), o))
		assert.Empty(t, cmp.Diff(Default(), o))
	})

	t.Run("empty path is ignored", func(t *testing.T) {
		o := Default()
		require.NoError(t, loadFile("", o))
		assert.Empty(t, cmp.Diff(Default(), o))
	})

	t.Run("overlays fields", func(t *testing.T) {
		path := filepath.Join(dir, "cfg.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"address": ":9090",
			"database_dsn": "postgres://x",
			"smtp_host": "smtp.example.com",
			"alert_to": "owner@example.com",
			"workers": 8,
			"allowed_origins": ["https://bike.example.com"]
		}`), 0o600))

		o := Default()
		require.NoError(t, loadFile(path, o))

		assert.Equal(t, ":9090", o.Port)
		assert.Equal(t, "postgres://x", o.DatabaseDSN)
		assert.Equal(t, "smtp.example.com", o.SMTPHost)
		assert.Equal(t, "owner@example.com", o.AlertTo)
		assert.Equal(t, 8, o.Workers)
		assert.Equal(t, []string{"https://bike.example.com"}, o.AllowedOrigins)
		// untouched
		assert.Equal(t, "localhost:6379", o.RedisAddr)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{ not json`), 0o600))

		err := loadFile(path, Default())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error while parsing config file")
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:8081")
	t.Setenv("DATABASE_DSN", "postgres://env")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("ALERT_WORKERS", "5")

	o := Default()
	applyEnv(o)

	assert.Equal(t, "127.0.0.1:8081", o.Port)
	assert.Equal(t, "postgres://env", o.DatabaseDSN)
	assert.Equal(t, 3, o.RedisDB)
	assert.Equal(t, 587, o.SMTPPort, "invalid int keeps fallback")
	assert.True(t, o.CookieSecure)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, o.AllowedOrigins)
	assert.Equal(t, 5, o.AlertWorkers)
}

func TestApplyEnv_NothingSet(t *testing.T) {
	for _, k := range []string{
		"SERVER_ADDRESS", "DATABASE_DSN", "LOG_LEVEL", "REDIS_ADDR", "REDIS_PASSWORD",
		"REDIS_DB", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "ALERT_FROM",
		"ALERT_TO", "ALERT_CHANNEL", "QUEUE_SIZE", "ALERT_QUEUE_SIZE", "WORKERS",
		"ALERT_WORKERS", "COOKIE_SECURE", "ALLOWED_ORIGINS", "TLS_CERT", "TLS_KEY",
	} {
		t.Setenv(k, "")
	}

	o := Default()
	applyEnv(o)
	assert.Empty(t, cmp.Diff(Default(), o))
}

func TestNormalize(t *testing.T) {
	t.Setenv("QUEUE_SIZE", "-5")
	t.Setenv("ALERT_QUEUE_SIZE", "-1")
	t.Setenv("WORKERS", "0")
	t.Setenv("ALERT_WORKERS", "-3")

	o := Default()
	applyEnv(o)
	normalize(o)

	assert.Equal(t, 0, o.QueueSize)
	assert.Equal(t, 0, o.AlertQueueSize)
	assert.Equal(t, 1, o.Workers)
	assert.Equal(t, 1, o.AlertWorkers)

	d := Default()
	normalize(d)
	assert.Empty(t, cmp.Diff(Default(), d), "valid values are left alone")
}
