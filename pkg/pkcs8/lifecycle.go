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

package pkcs8

import (
	"github.com/cespare/xxhash/v2"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
)

// Encoder is implemented by any value with a canonical byte encoding that
// can be compared against a Container.
//
// Encode must return a newly allocated slice owned by the caller. Equal
// zeroes that slice once the comparison is done, so an implementation must
// never return its own stored bytes.
type Encoder interface {
	Encode() ([]byte, error)
}

// Wipe zeroes the key material and the cached encoding in place. Attributes
// and the public key are not sensitive and are left intact. Wipe is
// idempotent.
//
// Wipe must not race with Encode, Equal or Hash on the same container.
func (c *Container) Wipe() {
	if c == nil {
		return
	}
	c.key.Wipe()
	if c.encoded != nil {
		c.encoded.Wipe()
	}
}

// Wiped reports whether Wipe has been called.
func (c *Container) Wiped() bool {
	return c != nil && c.key.Wiped()
}

// Equal reports whether other has the same canonical encoding as c,
// comparing in constant time.
func (c *Container) Equal(other Encoder) bool {
	return Equal(c, other)
}

// Hash returns a content hash of the canonical encoding, consistent with
// Equal. It returns 0 when the container cannot be encoded.
func (c *Container) Hash() uint64 {
	if err := c.ensureEncoded(); err != nil {
		return 0
	}
	var sum uint64
	_ = c.encoded.View(func(der []byte) error {
		sum = xxhash.Sum64(der)
		return nil
	})
	return sum
}

// Equal compares the canonical encodings of a and b in constant time. Two
// containers are compared through their cached encodings without copying.
// For any other Encoder the slice its Encode returns is zeroed after use.
func Equal(a, b Encoder) bool {
	if a == nil || b == nil {
		return false
	}
	ca, aIsContainer := a.(*Container)
	cb, bIsContainer := b.(*Container)
	if aIsContainer && bIsContainer {
		if ca == cb {
			return ca != nil
		}
		return equalContainers(ca, cb)
	}

	ea, err := a.Encode()
	if err != nil {
		return false
	}
	defer secure.Zero(ea)
	eb, err := b.Encode()
	if err != nil {
		return false
	}
	defer secure.Zero(eb)
	return secure.Equal(ea, eb)
}

func equalContainers(a, b *Container) bool {
	if a == nil || b == nil {
		return false
	}
	if a.ensureEncoded() != nil || b.ensureEncoded() != nil {
		return false
	}
	return a.encoded.Equal(b.encoded)
}
