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


package cli

import (
	"fmt"

	"github.com/jeremyhahn/go-pkcs8/internal/config"
	"github.com/jeremyhahn/go-pkcs8/pkg/keystore"
	"github.com/jeremyhahn/go-pkcs8/pkg/logging"
	"github.com/jeremyhahn/go-pkcs8/pkg/storage"
	"github.com/jeremyhahn/go-pkcs8/pkg/storage/file"
	"github.com/jeremyhahn/go-pkcs8/pkg/storage/memory"
)

// Config holds the state of one CLI invocation
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat controls output formatting (json, text, table)
	OutputFormat string

	// Verbose enables debug logging
	Verbose bool

	// Settings is the effective configuration after the file, the
	// environment and the flags have been merged
	Settings *config.Config

	// Logger is built from Settings before any command runs
	Logger *logging.Logger

	// CorrelationID is attached to every log record of this invocation
	CorrelationID string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: string(OutputFormatText),
		Settings:     config.Default(),
		Logger:       logging.Discard(),
	}
}

// OpenStore opens the keystore selected by Settings. The caller must
// Close it.
func (c *Config) OpenStore() (*keystore.Store, error) {
	backend, err := c.createStorage()
	if err != nil {
		return nil, err
	}

	store, err := keystore.New(&keystore.Config{
		Storage: backend,
		Logger:  c.Logger,
		Backend: c.Settings.Keystore.Backend,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return store, nil
}

func (c *Config) createStorage() (storage.Backend, error) {
	switch c.Settings.Keystore.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		backend, err := file.New(c.Settings.Keystore.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage backend: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown keystore backend: %s", c.Settings.Keystore.Backend)
	}
}
