package common

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file:schedorder.db?_pragma=foreign_keys(1)", cfg.Database.DSN)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, ":8081", cfg.Server.HTTPAddr)
	assert.Equal(t, "UTC", cfg.Extraction.Timezone)
	assert.Equal(t, 1, cfg.Extraction.WatchWorkers)
	assert.Equal(t, 64, cfg.Extraction.WatchQueueSize)
	assert.Equal(t, 5.0, cfg.NER.RateLimit)
	assert.Equal(t, "scheduling-orders", cfg.Archive.Bucket)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
database:
  driver: postgres
  dsn: postgres://file
extraction:
  timezone: America/Chicago
  key_by_position: true
ner:
  url: http://ner:9000/entities
  timeout: 3s
`), 0o600))
	t.Setenv("SCHEDORDER_DATABASE_DSN", "postgres://env")
	t.Setenv("SCHEDORDER_SERVER_HTTP_ADDR", ":9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://env", cfg.Database.DSN)
	assert.Equal(t, ":9999", cfg.Server.HTTPAddr)
	assert.True(t, cfg.Extraction.KeyByPosition)
	assert.Equal(t, "America/Chicago", cfg.Location().String())
	assert.Equal(t, "http://ner:9000/entities", cfg.NER.URL)
	assert.Equal(t, 3*time.Second, cfg.NER.Timeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "database:\n  driver: oracle\n"},
		{"postgres without dsn", "database:\n  driver: postgres\n"},
		{"firestore without project", "database:\n  driver: firestore\n"},
		{"bad timezone", "extraction:\n  timezone: Mars/Olympus\n"},
		{"negative workers", "extraction:\n  watch_workers: -1\n"},
		{"archive without endpoint", "archive:\n  enabled: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))
			_, err := LoadConfig(path)
			require.Error(t, err)
			var appErr *AppError
			assert.True(t, errors.As(err, &appErr))
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.dsn", envKey("SCHEDORDER_DATABASE_DSN"))
	assert.Equal(t, "ner.rate_limit", envKey("SCHEDORDER_NER_RATE_LIMIT"))
	assert.Equal(t, "debug", envKey("SCHEDORDER_DEBUG"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
