package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, &Config{
		MaxRows:      defaultMaxRows,
		TemplatePath: defaultTemplatePath,
		AccessDriver: defaultAccessDriver,
		LogLevel:     defaultLogLevel,
	}, cfg)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("MCP_MAX_ROWS", "250")
	t.Setenv("MCP_QUERY_TIMEOUT", "45s")
	t.Setenv("MCP_TEMPLATE_PATH", "/srv/templates/blank.mdb")
	t.Setenv("MCP_LOG_LEVEL", "debug")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.MaxRows)
	assert.Equal(t, 45*time.Second, cfg.QueryTimeout)
	assert.Equal(t, "/srv/templates/blank.mdb", cfg.TemplatePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, defaultAccessDriver, cfg.AccessDriver)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"max_rows: 0\n"+
			"query_timeout: 2m\n"+
			"access_driver: Custom Access Driver\n"+
			"seq_url: http://seq.local:5341\n"), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxRows, "zero disables the row cap")
	assert.Equal(t, 2*time.Minute, cfg.QueryTimeout)
	assert.Equal(t, "Custom Access Driver", cfg.AccessDriver)
	assert.Equal(t, "http://seq.local:5341", cfg.SeqURL)
	assert.Equal(t, defaultTemplatePath, cfg.TemplatePath)

	// The environment wins over the file.
	t.Setenv("MCP_MAX_ROWS", "7")
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxRows)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("negative max rows", func(t *testing.T) {
		t.Setenv("MCP_MAX_ROWS", "-1")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "max_rows")
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Setenv("MCP_QUERY_TIMEOUT", "-5s")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "query_timeout")
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_rows: [1\n"), 0o644))
		_, err := loadConfig(path)
		assert.ErrorContains(t, err, "read config")
	})
}
