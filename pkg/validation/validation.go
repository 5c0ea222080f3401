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

// Package validation provides input validation shared by the keystore and
// the CLI. Key IDs become storage keys and file names, so they are held to
// a conservative character set.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrInvalidKeyID is returned for unsafe or malformed key IDs.
	ErrInvalidKeyID = errors.New("validation: invalid key ID")

	// ErrInvalidBackend is returned for unsafe or malformed backend names.
	ErrInvalidBackend = errors.New("validation: invalid backend name")
)

var (
	// backendPattern matches safe backend names (lowercase alphanumeric + hyphens)
	backendPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

	// keyIDPattern matches key IDs
	keyIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
)

// ValidateKeyID rejects IDs that are unsafe as a storage key or file name.
// Only a-z, A-Z, 0-9, '-', '_' and '.' are allowed, up to 255 characters,
// and "." or ".." are never valid.
func ValidateKeyID(keyID string) error {
	if keyID == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidKeyID)
	}

	// Check for null bytes (can bypass some path checks)
	if strings.Contains(keyID, "\x00") {
		return fmt.Errorf("%w: contains null byte", ErrInvalidKeyID)
	}

	// Check length before other validations (prevent ReDoS)
	if len(keyID) > 255 {
		return fmt.Errorf("%w: too long (max 255 characters)", ErrInvalidKeyID)
	}

	if filepath.IsAbs(keyID) {
		return fmt.Errorf("%w: cannot be an absolute path", ErrInvalidKeyID)
	}

	cleaned := filepath.Clean(keyID)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, string(filepath.Separator)+"..") {
		return fmt.Errorf("%w: contains path traversal attempt", ErrInvalidKeyID)
	}

	for _, r := range keyID {
		if r < 32 || r == 127 {
			return fmt.Errorf("%w: contains control characters", ErrInvalidKeyID)
		}
	}

	if !keyIDPattern.MatchString(keyID) {
		return fmt.Errorf("%w: contains invalid characters (allowed: a-z, A-Z, 0-9, -, _, .)", ErrInvalidKeyID)
	}

	return nil
}

// ValidateBackendName validates a storage backend name.
// Backend names must be simple lowercase identifiers.
func ValidateBackendName(backend string) error {
	if backend == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidBackend)
	}
	if len(backend) > 64 {
		return fmt.Errorf("%w: too long (max 64 characters)", ErrInvalidBackend)
	}
	if !backendPattern.MatchString(backend) {
		return fmt.Errorf("%w: contains invalid characters (allowed: a-z, 0-9, -)", ErrInvalidBackend)
	}
	return nil
}

// SanitizeForLog sanitizes a string for safe logging (prevents log injection).
func SanitizeForLog(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	// Limit length to prevent log flooding
	if len(s) > 1000 {
		s = s[:1000] + "...[truncated]"
	}

	return s
}
