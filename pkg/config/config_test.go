package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, DefaultCacheFile, cfg.Corpus.CacheFile)
	assert.Equal(t, 0, cfg.Corpus.Workers)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsearch.yaml")
	body := `
server:
  port: 9191
corpus:
  root: /srv/docs
  workers: 3
redis:
  enabled: true
  cacheTTL: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("DS_CORPUS_WORKERS", "5")
	t.Setenv("DS_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "/srv/docs", cfg.Corpus.Root)
	assert.Equal(t, 5, cfg.Corpus.Workers)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Corpus.CacheFile = filepath.Join("sub", "idx")
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Corpus.Workers = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Analytics.SnapshotInterval = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestLoadRejectsZeroSnapshotInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsearch.yaml")
	body := "postgres:\n  enabled: true\nanalytics:\n  snapshotInterval: 0s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshotInterval")
}
