// Package config loads command-line client settings from a YAML file and
// EAPI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	eapi "github.com/st-keller/eapi-client"
	"github.com/st-keller/eapi-client/endpoint"
	"github.com/st-keller/eapi-client/transport"
)

// Config is the on-disk and environment form of the client settings.
type Config struct {
	Token     string        `json:"token" yaml:"token" mapstructure:"token"`
	Key       string        `json:"key" yaml:"key" mapstructure:"key"`
	Server    string        `json:"server" yaml:"server" mapstructure:"server"`
	Format    string        `json:"format" yaml:"format" mapstructure:"format"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	CAPath    string        `json:"ca_path" yaml:"ca_path" mapstructure:"ca_path"`
	UserAgent string        `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	Strict    bool          `json:"strict" yaml:"strict" mapstructure:"strict"` // only allow the built-in endpoint table

	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`

	path string
}

// LoggingConfig captures logging settings.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`    // debug, info, warn, error
	Format string `json:"format" yaml:"format" mapstructure:"format"` // json or text
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server:    eapi.DefaultServer,
		Format:    eapi.DefaultFormat,
		Timeout:   transport.DefaultTimeout,
		UserAgent: eapi.DefaultUserAgent,
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultPath returns $EAPI_CONFIG_DIR/config.yaml, falling back to
// $HOME/.eapi/config.yaml.
func DefaultPath() (string, error) {
	configDir := os.Getenv("EAPI_CONFIG_DIR")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		configDir = filepath.Join(home, ".eapi")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Load reads configuration from configPath and environment variables.
// An empty configPath means DefaultPath, which may be absent; an explicit
// path must exist.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := configPath != ""
	if !explicit {
		var err error
		configPath, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Environment variables override with EAPI prefix
	v.SetEnvPrefix("EAPI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("logging.level", "EAPI_LOG_LEVEL")
	_ = v.BindEnv("logging.format", "EAPI_LOG_FORMAT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.path = configPath

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("token", "")
	v.SetDefault("key", "")
	v.SetDefault("server", d.Server)
	v.SetDefault("format", d.Format)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("ca_path", "")
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("strict", false)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Path returns the file the config was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// Save writes the config to disk. Credentials are stored, so the file is 0600.
func (c *Config) Save() error {
	if c.path == "" {
		path, err := DefaultPath()
		if err != nil {
			return err
		}
		c.path = path
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// ClientConfig converts the settings into an eapi.Config using logger.
func (c *Config) ClientConfig(logger *slog.Logger) eapi.Config {
	cfg := eapi.Config{
		Token:     c.Token,
		Key:       c.Key,
		Server:    c.Server,
		Format:    c.Format,
		Timeout:   c.Timeout,
		CAPath:    c.CAPath,
		UserAgent: c.UserAgent,
		Logger:    logger,
	}
	if c.Strict {
		cfg.Endpoints = endpoint.Default()
	}
	return cfg
}
