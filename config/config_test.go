package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
http:
  port: 8080
log:
  level: debug
secrets:
  access: access-secret
  refresh: refresh-secret
cache:
  sweepInterval: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "access-secret", cfg.Secrets.Access)
	assert.Equal(t, time.Minute, cfg.Cache.SweepInterval)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
http:
  port: 8080
secrets:
  access: access-secret
  refresh: refresh-secret
`)

	t.Setenv("GARM_HTTP_PORT", "9999")
	t.Setenv("GARM_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GARM_SECRETS_ACCESS", "a-secret")
	t.Setenv("GARM_SECRETS_REFRESH", "r-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Minute, cfg.Cache.SweepInterval)
}

func TestLoadRejectsMissingSecrets(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsEqualSecrets(t *testing.T) {
	t.Setenv("GARM_SECRETS_ACCESS", "same")
	t.Setenv("GARM_SECRETS_REFRESH", "same")

	_, err := Load("")
	assert.Error(t, err)
}
