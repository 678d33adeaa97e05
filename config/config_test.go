package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/debt-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debts.db", cfg.Database.Path)
	assert.Equal(t, 256, cfg.Outbox.Buffer)
	assert.Equal(t, 3, cfg.Outbox.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.RetryBackoff)
	assert.Equal(t, 5*time.Second, cfg.Outbox.SaveTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.ListenAddr())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
outbox:
  save_timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Outbox.SaveTimeout)
	// Untouched keys keep their defaults.
	assert.Equal(t, "debts.db", cfg.Database.Path)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
