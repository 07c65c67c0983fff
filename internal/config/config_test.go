package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cs", cfg.Dispatch.DefaultLanguage)
	assert.Equal(t, 999, cfg.Dispatch.ETASentinel)
	assert.Equal(t, int64(8), cfg.Routing.MaxInFlight)
	assert.Equal(t, 5*time.Second, cfg.Geocoding.Timeout)
	assert.Less(t, cfg.Geocoding.HomeRegion.MinLat, cfg.Geocoding.HomeRegion.MaxLat)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, "Europe/Prague", cfg.Dispatch.Timezone)
	assert.Equal(t, 4, cfg.Dispatch.VanThreshold)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("ROUTING_MAX_IN_FLIGHT", "3")
	t.Setenv("DISPATCH_DEFAULT_LANGUAGE", "en")
	t.Setenv("GEOCODING_TIMEOUT", "750ms")
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("DISPATCH_TIMEZONE", "Europe/Bratislava")
	t.Setenv("DISPATCH_VAN_PASSENGER_THRESHOLD", "6")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, int64(3), cfg.Routing.MaxInFlight)
	assert.Equal(t, "en", cfg.Dispatch.DefaultLanguage)
	assert.Equal(t, 750*time.Millisecond, cfg.Geocoding.Timeout)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "Europe/Bratislava", cfg.Dispatch.Timezone)
	assert.Equal(t, 6, cfg.Dispatch.VanThreshold)
}

func TestDispatchConfig_Location(t *testing.T) {
	loc, err := DispatchConfig{Timezone: "Europe/Prague"}.Location()
	require.NoError(t, err)

	summer := time.Date(2025, 6, 12, 10, 30, 0, 0, time.UTC).In(loc)
	assert.Equal(t, 12, summer.Hour())
	winter := time.Date(2025, 1, 12, 10, 30, 0, 0, time.UTC).In(loc)
	assert.Equal(t, 11, winter.Hour())

	_, err = DispatchConfig{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
