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

package keyfactory

import "errors"

var (
	// ErrUnsupportedKey is returned when a Go key type has no PKCS#8 mapping.
	ErrUnsupportedKey = errors.New("keyfactory: unsupported key type")

	// ErrInvalidKeyMaterial is returned when a container's private key octets
	// do not match the shape expected for its algorithm.
	ErrInvalidKeyMaterial = errors.New("keyfactory: invalid key material")

	// ErrInvalidPassword is returned when an encrypted key cannot be opened
	// with the supplied password.
	ErrInvalidPassword = errors.New("keyfactory: invalid password")

	// ErrPasswordRequired is returned when encryption or decryption is
	// attempted without a password.
	ErrPasswordRequired = errors.New("keyfactory: password required")

	// ErrInvalidData is returned for empty input.
	ErrInvalidData = errors.New("keyfactory: invalid data")
)
