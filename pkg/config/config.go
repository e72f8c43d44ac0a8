// Package config loads mushconv settings. The format follows the file
// extension: .yaml/.yml for YAML, .toml for TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/validate"
)

// Config holds every tunable.
type Config struct {
	// SyntheticPrefix is prepended to an attribute name that collides with
	// a built-in of the target lineage.
	SyntheticPrefix string `yaml:"synthetic_prefix" toml:"synthetic_prefix"`

	// Strict makes unknown object flag and power bits fatal.
	Strict bool `yaml:"strict" toml:"strict"`

	// LockRoundTrip maps a lineage ID to the severity of a lock key that
	// does not re-serialize to its stored text.
	LockRoundTrip map[string]string `yaml:"lock_round_trip" toml:"lock_round_trip"`

	// ResetPassword is used by resetpw when --password is not given.
	ResetPassword string `yaml:"reset_password" toml:"reset_password"`

	MetricsPath string `yaml:"metrics_path" toml:"metrics_path"` // textfile collector output
	StorePath   string `yaml:"store_path" toml:"store_path"`     // bbolt snapshot store
	CacheSize   int    `yaml:"cache_size" toml:"cache_size"`     // lock parse cache entries
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		SyntheticPrefix: "X",
		LockRoundTrip: map[string]string{
			lineage.T5X.ID: "fatal",
			lineage.T6H.ID: "warning",
			lineage.R7H.ID: "warning",
			lineage.P6H.ID: "warning",
		},
		ResetPassword: "potrzebie",
		CacheSize:     4096,
	}
}

// Load reads path over Default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unknown format %q (want .yaml, .yml or .toml)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) check() error {
	if c.SyntheticPrefix == "" {
		return fmt.Errorf("synthetic_prefix must not be empty")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	for id := range c.LockRoundTrip {
		if _, err := lineage.ByID(id); err != nil {
			return fmt.Errorf("lock_round_trip: %w", err)
		}
	}
	_, err := c.ValidateOptions()
	return err
}

// ValidateOptions translates the validator settings.
func (c *Config) ValidateOptions() (validate.Options, error) {
	opts := validate.Options{
		Strict:        c.Strict,
		CacheSize:     c.CacheSize,
		LockRoundTrip: make(map[string]validate.Severity, len(c.LockRoundTrip)),
	}
	for id, name := range c.LockRoundTrip {
		l, err := lineage.ByID(id)
		if err != nil {
			return opts, err
		}
		sev, err := validate.ParseSeverity(name)
		if err != nil {
			return opts, fmt.Errorf("lock_round_trip %s: %w", id, err)
		}
		opts.LockRoundTrip[l.ID] = sev
	}
	return opts, nil
}
