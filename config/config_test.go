package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: test-secret-0123456789\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, DefaultUserQuota, cfg.Storage.DefaultUserQuota)
	assert.Equal(t, int64(32212254720), cfg.Storage.DefaultUserQuota)
	assert.Equal(t, DefaultMaxFileSize, cfg.Storage.MaxFileSize)
	assert.Equal(t, 30, cfg.RecycleBin.RetentionDays)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
  mode: debug
storage:
  backend: memory
  max_file_size: 1024
log:
  level: DEBUG
jwt:
  secret: test-secret-0123456789
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, int64(1024), cfg.Storage.MaxFileSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: test-secret-0123456789\n")
	t.Setenv("SUPFILE_SERVER_PORT", "7070")
	t.Setenv("SUPFILE_STORAGE_DEFAULT_USER_QUOTA", "1000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, int64(1000), cfg.Storage.DefaultUserQuota)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SUPFILE_JWT_SECRET", "test-secret-0123456789")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "supfile.db", cfg.Database.Database)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"missing jwt secret": "server:\n  port: 8080\n",
		"bad backend":        "jwt:\n  secret: test-secret-0123456789\nstorage:\n  backend: floppy\n",
		"minio without endpoint": "jwt:\n  secret: test-secret-0123456789\nstorage:\n  backend: minio\n",
		"mysql without host": "jwt:\n  secret: test-secret-0123456789\ndatabase:\n  driver: mysql\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestWriteRoundTrips(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: test-secret-0123456789\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg))
	assert.Contains(t, buf.String(), "default_user_quota: 32212254720")

	again, err := LoadConfig(writeConfigFile(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}
