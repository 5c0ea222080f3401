// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// BackendMemory keeps containers in process memory only
	BackendMemory = "memory"

	// BackendFile keeps containers below KeystoreConfig.Path
	BackendFile = "file"
)

// Config represents the complete CLI configuration
type Config struct {
	Keystore KeystoreConfig `yaml:"keystore" json:"keystore"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// KeystoreConfig selects where imported containers are kept
type KeystoreConfig struct {
	Backend string `yaml:"backend" json:"backend"` // memory, file
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig controls metrics collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Textfile, when set, receives the metrics in Prometheus text format
	// after every command
	Textfile string `yaml:"textfile" json:"textfile"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Keystore: KeystoreConfig{
			Backend: BackendFile,
			Path:    defaultKeystorePath(),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func defaultKeystorePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pkcs8", "keystore")
	}
	return filepath.Join(".pkcs8", "keystore")
}

// Load reads configuration from a YAML file on top of Default, applies
// environment variable overrides and validates the result
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation, for callers that layer further
// overrides before calling Validate.
func Read(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// FromEnv returns Default with environment variable overrides applied
func FromEnv() (*Config, error) {
	cfg := Environ()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Environ is FromEnv without validation
func Environ() *Config {
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if backend := os.Getenv("PKCS8_KEYSTORE_BACKEND"); backend != "" {
		cfg.Keystore.Backend = backend
	}
	if path := os.Getenv("PKCS8_KEYSTORE_PATH"); path != "" {
		cfg.Keystore.Path = path
	}

	if level := os.Getenv("PKCS8_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("PKCS8_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if enabled := os.Getenv("PKCS8_METRICS_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			log.Printf("Warning: invalid PKCS8_METRICS_ENABLED value %q, using %t: %v",
				enabled, cfg.Metrics.Enabled, err)
		} else {
			cfg.Metrics.Enabled = v
		}
	}
	if textfile := os.Getenv("PKCS8_METRICS_TEXTFILE"); textfile != "" {
		cfg.Metrics.Textfile = textfile
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	switch c.Keystore.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Keystore.Path == "" {
			return fmt.Errorf("keystore path is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid keystore backend: %q (must be memory or file)", c.Keystore.Backend)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
