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

package keystore

import (
	"fmt"

	"github.com/jeremyhahn/go-pkcs8/pkg/logging"
	"github.com/jeremyhahn/go-pkcs8/pkg/storage"
	"github.com/jeremyhahn/go-pkcs8/pkg/validation"
)

// DefaultBackend is the metrics label used when Config.Backend is empty.
const DefaultBackend = "default"

// Config contains configuration for a Store.
type Config struct {
	// Storage holds the canonical encodings. This can be file-based,
	// memory-based, or any implementation of the storage.Backend interface.
	Storage storage.Backend

	// Logger receives operational events. Defaults to a discarding logger.
	Logger *logging.Logger

	// Backend names the storage for metrics labels, e.g. "memory" or "file".
	// Empty means DefaultBackend.
	Backend string
}

// Validate checks if the Config is valid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.Storage == nil {
		return fmt.Errorf("storage is required")
	}
	if c.Backend != "" {
		if err := validation.ValidateBackendName(c.Backend); err != nil {
			return err
		}
	}
	return nil
}
