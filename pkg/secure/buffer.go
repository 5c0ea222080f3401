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

// Package secure provides an exclusively owned byte buffer for sensitive
// material such as private keys, together with zeroing and constant-time
// comparison helpers.
//
// A Buffer never hands out its backing array. Readers either receive a copy
// (Bytes) or borrow the contents for the duration of a callback (View).
// Wipe overwrites the contents in place and is safe to call repeatedly.
package secure

import (
	"crypto/subtle"
	"errors"
)

// ErrWiped is returned by View when the buffer has already been wiped.
var ErrWiped = errors.New("secure: buffer has been wiped")

// Buffer holds sensitive bytes.
//
// The zero value is an empty, unwiped buffer. A Buffer is not safe for
// concurrent use; Wipe must happen after all readers are done.
type Buffer struct {
	data  []byte
	wiped bool
}

// NewBuffer copies b into a new Buffer. The caller keeps ownership of b.
func NewBuffer(b []byte) *Buffer {
	data := make([]byte, len(b))
	copy(data, b)
	return &Buffer{data: data}
}

// TakeBuffer adopts b without copying. The caller must not use b afterwards.
func TakeBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Len returns the buffer length. Wiping does not change it.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Bytes returns a copy of the contents. After Wipe the copy is all zero
// bytes with the original length.
func (b *Buffer) Bytes() []byte {
	if b == nil || b.data == nil {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// View calls fn with the live contents. fn must not retain or modify the
// slice.
func (b *Buffer) View(fn func(data []byte) error) error {
	if b == nil {
		return fn(nil)
	}
	if b.wiped {
		return ErrWiped
	}
	return fn(b.data)
}

// Wipe zeroes the contents in place.
func (b *Buffer) Wipe() {
	if b == nil || b.wiped {
		return
	}
	Zero(b.data)
	b.wiped = true
}

// Wiped reports whether Wipe has been called.
func (b *Buffer) Wiped() bool {
	return b != nil && b.wiped
}

// Equal compares two buffers in constant time with respect to their
// contents.
func (b *Buffer) Equal(o *Buffer) bool {
	var x, y []byte
	if b != nil {
		x = b.data
	}
	if o != nil {
		y = o.data
	}
	return Equal(x, y)
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	for i := range b {
		b[i] = 0
	}
	// keeps the loop from being optimized away
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}

// Equal reports whether a and b hold the same bytes. The comparison does not
// exit early on the first mismatching byte.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
