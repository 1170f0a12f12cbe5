// Package config loads the mtgrules configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/mtgrules/pkg/rules"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "mtgrules.yaml"

// Config holds all mtgrules configuration.
type Config struct {
	// Rules document; empty uses the bundled document.
	Data string `yaml:"data"`

	// Edition shown when a session starts.
	DefaultVersion string `yaml:"default_version"`

	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Watch bool   `yaml:"watch"` // reload the rules document when it changes
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		DefaultVersion: rules.DefaultVersion.String(),
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Relative data paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Data != "" && !filepath.IsAbs(cfg.Data) {
		cfg.Data = filepath.Join(filepath.Dir(path), cfg.Data)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MTGRULES_DATA"); v != "" {
		c.Data = v
	}
	if v := os.Getenv("MTGRULES_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MTGRULES_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the edition key and the log level.
func (c *Config) Validate() error {
	if _, err := c.Version(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address must not be empty")
	}
	return nil
}

// Version returns the configured default edition.
func (c *Config) Version() (rules.VersionKey, error) {
	if c.DefaultVersion == "" {
		return rules.DefaultVersion, nil
	}
	key, err := rules.ParseVersionKey(c.DefaultVersion)
	if err != nil {
		return 0, fmt.Errorf("invalid default_version: %w", err)
	}
	return key, nil
}

// Logger builds a zap logger from the log settings. verbose forces the
// debug level.
func (c *Config) Logger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
