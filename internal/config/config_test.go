package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenecore.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[scene]
file = "scenes/demo.yaml"
tick_rate = "50ms"
ticks = 10

[collision]
leaf_size = 8
raycast_mode = "front_face"

[database]
enabled = true
conn_max_lifetime = "5m"
reset_snapshot = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "scenes/demo.yaml", cfg.Scene.File)
	assert.Equal(t, 50*time.Millisecond, cfg.Scene.TickRate)
	assert.Equal(t, 10, cfg.Scene.Ticks)
	assert.Equal(t, 64, cfg.Scene.PoolPageSize)
	assert.Equal(t, 8, cfg.Collision.LeafSize)
	assert.Equal(t, "front_face", cfg.Collision.RaycastMode)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "main", cfg.Database.SnapshotName)
	assert.True(t, cfg.Database.ResetSnapshot)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"mode":      "[collision]\nraycast_mode = \"both\"\n",
		"page size": "[scene]\npool_page_size = 0\n",
		"format":    "[logging]\nformat = \"xml\"\n",
		"syntax":    "[scene\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "[scripting]\ndir = \"lua\"\n")
	t.Setenv(EnvPath, path)
	cfg, used, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "lua", cfg.Scripting.Dir)

	t.Setenv(EnvPath, filepath.Join(t.TempDir(), "missing.toml"))
	_, _, err = LoadFromEnv()
	assert.Error(t, err)
}

func TestMissingDefaultFileFallsBack(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(EnvPath, "")
	cfg, used, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultPath, used)
	assert.Equal(t, defaults(), cfg)
}
