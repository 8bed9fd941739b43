package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/device"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.HoldThreshold)
	assert.Equal(t, 4*time.Second, cfg.Cooldown)
	assert.Equal(t, BackendSQLite, cfg.BindingsBackend)
	assert.Equal(t, device.KindAuto, cfg.Microphone)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
camera_id: 2
hold_threshold: 1500ms
cooldown: 6s
data_dir: /tmp/mudra-test
bindings_backend: file
microphone: none
log_level: debug
tray: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.CameraID)
	assert.Equal(t, 1500*time.Millisecond, cfg.HoldThreshold)
	assert.Equal(t, 6*time.Second, cfg.Cooldown)
	assert.Equal(t, BackendFile, cfg.BindingsBackend)
	assert.Equal(t, device.KindNone, cfg.Microphone)
	assert.True(t, cfg.Tray)

	// Untouched fields keep their defaults.
	assert.Equal(t, 15, cfg.FPS)
	assert.Equal(t, "/tmp/mudra-test/gesture_settings.json", cfg.BindingsPath())
	assert.Equal(t, "/tmp/mudra-test/mudra.db", cfg.DBPath())
	assert.Equal(t, "/tmp/mudra-test/plugins", cfg.PluginsPath())
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"bad yaml":      "cooldown: [",
		"zero cooldown": "cooldown: 0s",
		"bad backend":   "bindings_backend: redis",
		"bad mic":       "microphone: bluetooth",
		"bad level":     "log_level: loud",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Cooldown = 10 * time.Second
	cfg.BindingsFile = "/tmp/b.json"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, "/tmp/b.json", loaded.BindingsPath())
}
