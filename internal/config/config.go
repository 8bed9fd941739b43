// Package config loads mudra's YAML configuration.
//
// The file lives at os.UserConfigDir()/mudra/config.yaml unless a path is
// given explicitly. A missing file is not an error; defaults apply.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/device"
	"github.com/ayusman/mudra/internal/logging"
)

const (
	appDir     = "mudra"
	configFile = "config.yaml"
	dbFile     = "mudra.db"

	// BindingsFileName is the JSON document written by the file backend.
	BindingsFileName = "gesture_settings.json"
)

// Bindings backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds every tunable of the application.
type Config struct {
	CameraID int `yaml:"camera_id"`
	FPS      int `yaml:"fps"`

	// HoldThreshold spaces repeated confirmations of one gesture.
	HoldThreshold time.Duration `yaml:"hold_threshold"`
	// Cooldown is the minimum time between any two dispatched actions.
	Cooldown time.Duration `yaml:"cooldown"`

	DataDir         string `yaml:"data_dir"`
	BindingsBackend string `yaml:"bindings_backend"`
	BindingsFile    string `yaml:"bindings_file"`

	// ListenAddr is the configuration API address; empty disables it.
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	Microphone    device.Kind   `yaml:"microphone"`
	PluginDir     string        `yaml:"plugin_dir"`
	PluginName    string        `yaml:"plugin_name"`
	ToggleTimeout time.Duration `yaml:"toggle_timeout"`

	Tray            bool   `yaml:"tray"`
	MediaPipeScript string `yaml:"mediapipe_script"`
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := ".mudra"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mudra")
	}

	return Config{
		CameraID:        0,
		FPS:             15,
		HoldThreshold:   time.Second,
		Cooldown:        4 * time.Second,
		DataDir:         dataDir,
		BindingsBackend: BackendSQLite,
		ListenAddr:      "127.0.0.1:8080",
		LogLevel:        "info",
		Microphone:      device.KindAuto,
		ToggleTimeout:   device.DefaultTimeout,
		Tray:            false,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, configFile), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks ranges and enumerated values.
func (c *Config) Validate() error {
	var errs []error

	if c.HoldThreshold <= 0 {
		errs = append(errs, fmt.Errorf("hold_threshold must be positive, got %s", c.HoldThreshold))
	}
	if c.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("cooldown must be positive, got %s", c.Cooldown))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.ToggleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("toggle_timeout must be positive, got %s", c.ToggleTimeout))
	}

	switch c.BindingsBackend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("bindings_backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.BindingsBackend))
	}

	switch c.Microphone {
	case device.KindAuto, device.KindPactl, device.KindPlugin, device.KindNone:
	default:
		errs = append(errs, fmt.Errorf("unknown microphone %q", c.Microphone))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// DBPath is the SQLite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFile)
}

// BindingsPath is the JSON bindings document location.
func (c *Config) BindingsPath() string {
	if c.BindingsFile != "" {
		return c.BindingsFile
	}
	return filepath.Join(c.DataDir, BindingsFileName)
}

// PluginsPath is the plugin directory.
func (c *Config) PluginsPath() string {
	if c.PluginDir != "" {
		return c.PluginDir
	}
	return filepath.Join(c.DataDir, "plugins")
}
