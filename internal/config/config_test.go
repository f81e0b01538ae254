package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "API_PREFIX", "DB_HOST", "DB_NAME", "REDIS_ADDR", "JWT_ACCESS_TTL", "DARAJA_ACCOUNT_PREFIX", "USSD_MENU_FALLBACK", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/api", cfg.HTTP.APIPrefix)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "afyalink", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, "AFYLNK", cfg.Daraja.AccountPrefix)
	assert.Equal(t, 1, cfg.Daraja.Amount)
	assert.Equal(t, "Error: Menu not configured. Please contact support.", cfg.USSD.MenuFallback)
	assert.Equal(t, "en", cfg.USSD.DefaultLanguage)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("DARAJA_AMOUNT", "50")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("OTP_MAX_REQUESTS", "2")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 50, cfg.Daraja.Amount)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, 2, cfg.OTP.MaxRequests)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("JWT_REFRESH_TTL", "-1h")

	cfg := Load()

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
}

func TestLocation_UnknownZoneFallsBackToEAT(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Invalid"}
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 3*60*60, offset)
}
