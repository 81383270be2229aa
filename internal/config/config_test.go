package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "4020", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "gzip", cfg.Compression)
	assert.Equal(t, "@every 5s", cfg.CacheSyncSchedule)
	assert.Equal(t, 100, cfg.CSV.MaxTableRows)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notebook.yaml"), []byte(`
http_port: "5000"
compression: brotli
csv:
  max_table_rows: 25
`), 0o600))
	t.Setenv("NOTEBOOK_REDIS_ADDR", "localhost:6379")
	t.Setenv("NOTEBOOK_COMPRESSION", "lz4")

	v := New()
	v.AddConfigPath(dir)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, "lz4", cfg.Compression)
	assert.Equal(t, 25, cfg.CSV.MaxTableRows)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestOpenDb(t *testing.T) {
	cfg := &Config{DB: DBConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "db", "n.db")}}
	db, err := OpenDb(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	_ = sqlDB.Close()

	_, err = OpenDb(&Config{DB: DBConfig{Driver: "oracle"}})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
