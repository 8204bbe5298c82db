package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.EqualValues(t, 0, cfg.Demo.Seed)
	assert.Equal(t, 100*time.Millisecond, cfg.Demo.RunDelay)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("XRAY_SEED", "42")
	t.Setenv("XRAY_RUN_DELAY", "5ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.EqualValues(t, 42, cfg.Demo.Seed)
	assert.Equal(t, 5*time.Millisecond, cfg.Demo.RunDelay)
}

func TestLoadDefaultsWhenUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.Demo.RunDelay)
}
