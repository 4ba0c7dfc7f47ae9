package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "flora")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "floradex")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 30, cfg.AccessTTLMin)
	assert.Equal(t, 14, cfg.RefreshTTLDays)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "https://my-api.plantnet.org", cfg.PlantNet.BaseURL)
	assert.Equal(t, "all", cfg.PlantNet.Project)
	assert.Equal(t, "https://perenual.com/api", cfg.Perenual.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.ExternalTimeout)
	assert.Equal(t, "static", cfg.StaticDir)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, DefaultCORSOrigins, cfg.CORSOrigins)
	assert.False(t, cfg.EventsEnabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.True(t, cfg.Cache.Methods["GET"])
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("EXTERNAL_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://floradex.app, http://localhost:5173")
	t.Setenv("EVENTS_ENABLED", "yes")
	t.Setenv("PERENUAL_BASE_URL", "http://perenual.test/api/")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.ExternalTimeout)
	assert.Equal(t, []string{"https://floradex.app", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.True(t, cfg.EventsEnabled)
	assert.Equal(t, "http://perenual.test/api", cfg.Perenual.BaseURL)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "floradex")
	t.Setenv("JWT_SECRET", "")

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.NotContains(t, err.Error(), "DB_NAME")
}

func TestLoadRejectsBadBcryptCost(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "2")

	_, err := Load(viper.New())
	require.Error(t, err)
}
