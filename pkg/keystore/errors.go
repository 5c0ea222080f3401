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

import "errors"

var (
	// ErrKeyNotFound is returned when no container is stored under an ID.
	ErrKeyNotFound = errors.New("keystore: key not found")

	// ErrKeyExists is returned when importing under an ID already in use.
	ErrKeyExists = errors.New("keystore: key already exists")

	// ErrCorrupt is returned when a stored entry no longer decodes strictly.
	ErrCorrupt = errors.New("keystore: stored key is corrupt")

	// ErrClosed is returned when attempting to use a closed store.
	ErrClosed = errors.New("keystore: store is closed")
)
