package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/docql/cli/internal/config"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := config.AppFs
	fs := afero.NewMemMapFs()
	config.AppFs = fs
	t.Cleanup(func() { config.AppFs = prev })
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	useMemFs(t)
	t.Setenv("DATABASE_URL", "")

	v, err := config.New()
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.Collections)
	assert.False(t, cfg.Debug)
}

func TestLoad_FileAndEnv(t *testing.T) {
	fs := useMemFs(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(wd, ".docql.yaml"), []byte(`
dialect: sqlite
database_url: file:test.db
collections: [users, orders]
cache_size: 8
cache_ttl: 30s
`), 0644))
	t.Setenv("DOCQL_DEBUG", "true")
	t.Setenv("DOCQL_DIALECT", "mysql")

	v, err := config.New()
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, "file:test.db", cfg.DatabaseURL)
	assert.Equal(t, []string{"users", "orders"}, cfg.Collections)
	assert.Equal(t, 8, cfg.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.Debug)
}

func TestLoad_DatabaseURLFallback(t *testing.T) {
	useMemFs(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/app")

	v, err := config.New()
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/app", cfg.DatabaseURL)
}

func TestSaveConfig(t *testing.T) {
	fs := useMemFs(t)

	path, err := config.SaveConfig(&config.Config{
		Dialect:     "sqlite",
		Collections: []string{"users"},
		CacheSize:   32,
		CacheTTL:    time.Minute,
	}, "project")
	require.NoError(t, err)
	assert.Equal(t, "project/.docql.yaml", path)

	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	require.True(t, exists)

	v, err := config.New()
	require.NoError(t, err)
	v.SetConfigFile(path)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, []string{"users"}, cfg.Collections)
	assert.Equal(t, 32, cfg.CacheSize)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}
