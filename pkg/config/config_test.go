package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30*time.Second, cfg.Access.SyncInterval)
	assert.False(t, cfg.Access.AcceptUnknownModules)
	assert.Equal(t, "/login", cfg.Access.LoginPath)
	assert.Equal(t, "pdi:events", cfg.Realtime.Channel)
	assert.True(t, cfg.Workflow.Enabled)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ACCESS_SYNC_INTERVAL", "45s")
	t.Setenv("ACCESS_ACCEPT_UNKNOWN_MODULES", "true")
	t.Setenv("WS_ALLOWED_ORIGINS", "app.example.com, admin.example.com")
	t.Setenv("ACCESS_SERVER_URL", "http://api.local/api/v1/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Access.SyncInterval)
	assert.True(t, cfg.Access.AcceptUnknownModules)
	assert.Equal(t, []string{"app.example.com", "admin.example.com"}, cfg.Realtime.AllowedOrigins)
	assert.Equal(t, "http://api.local/api/v1", cfg.Watcher.ServerURL)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
}

// Load reads .env from the working directory, so tests run from an empty one.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
