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

// Package storage defines the key/value abstraction the keystore persists
// canonical PKCS#8 encodings through. Values are private key material, so
// backends must not retain caller slices and must not hand out their own.
package storage

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// KeyPrefix is the namespace under which private key containers are stored.
const KeyPrefix = "keys/"

// Backend is a flat key/value store. Keys may contain forward slashes to
// group entries; they never contain path traversal.
type Backend interface {
	// Get retrieves the value for the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// Put stores the value for the given key, overwriting any existing value.
	Put(key string, value []byte, opts *Options) error

	// Delete removes the key and its value from storage.
	// Returns ErrNotFound if the key does not exist.
	Delete(key string) error

	// List returns all keys with the given prefix in sorted order.
	// If prefix is empty, all keys are returned.
	List(prefix string) ([]string, error)

	// Exists checks if a key exists in storage.
	Exists(key string) (bool, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Options carries per-write settings.
type Options struct {
	// Permissions sets the file permissions for file-based storage
	Permissions fs.FileMode
}

// DefaultOptions returns options for owner-only access.
func DefaultOptions() *Options {
	return &Options{
		Permissions: 0600,
	}
}

// ValidateKey rejects empty keys, absolute paths, NUL bytes and any form
// of path traversal.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidID
	}
	if strings.Contains(key, "\x00") {
		return ErrInvalidID
	}
	if filepath.IsAbs(key) || strings.HasPrefix(key, "/") {
		return ErrInvalidID
	}
	for _, part := range strings.Split(filepath.ToSlash(key), "/") {
		if part == ".." {
			return ErrInvalidID
		}
	}
	return nil
}
