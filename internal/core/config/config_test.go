package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvServerURL, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
	assert.Equal(t, DefaultAcknowledgment, cfg.Handshake.Acknowledgment)
	assert.Equal(t, 8, cfg.Handshake.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Handshake.RetryDelay)
	assert.Equal(t, 2*time.Second, cfg.Handshake.AwaitTimeout)
	assert.Equal(t, 4, cfg.Queue.Workers)
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	t.Setenv("RSO_TEST_HOST", "rso.example.edu")

	path := writeConfig(t, `
server:
  url: https://${RSO_TEST_HOST}/api/
  timeout: 3s
handshake:
  acknowledgment: "hello"
  max_attempts: 3
  retry_delay: 250ms
queue:
  workers: 2
health:
  port: 9100
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://rso.example.edu/api", cfg.Server.URL)
	assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "hello", cfg.Handshake.Acknowledgment)
	assert.Equal(t, 3, cfg.Handshake.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Handshake.RetryDelay)
	assert.Equal(t, DefaultAwaitTimeout, cfg.Handshake.AwaitTimeout)
	assert.Equal(t, 2, cfg.Queue.Workers)
	assert.Equal(t, 9100, cfg.Health.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesURL(t *testing.T) {
	t.Setenv(EnvServerURL, "http://10.0.2.2:8989")

	cfg, err := Load(writeConfig(t, "server:\n  url: http://ignored:1\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.2.2:8989", cfg.Server.URL)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvServerURL, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  url: localhost:8989\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  url: ftp://host\n"))
	assert.Error(t, err)
}
