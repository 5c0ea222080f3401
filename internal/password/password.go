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

// Package password holds passphrases for encrypted PKCS#8 keys while the
// CLI needs them, and zeroes them afterwards.
package password

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
)

var (
	// ErrEmptyPassword is returned when an empty password is provided.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordZeroed is returned when the password has been zeroed.
	ErrPasswordZeroed = errors.New("password has been zeroed")
)

// ClearPassword stores a password in memory as cleartext until Clear is
// called.
type ClearPassword struct {
	buf *secure.Buffer
}

// NewClearPassword copies password into a new ClearPassword.
// Returns an error if the password is empty.
func NewClearPassword(password []byte) (*ClearPassword, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	return &ClearPassword{buf: secure.NewBuffer(password)}, nil
}

// NewClearPasswordFromString creates a new cleartext password from a string.
func NewClearPasswordFromString(password string) (*ClearPassword, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	return &ClearPassword{buf: secure.TakeBuffer([]byte(password))}, nil
}

// FromFile reads a password from the first line of path. A trailing
// newline (LF or CRLF) is not part of the password.
func FromFile(path string) (*ClearPassword, error) {
	// #nosec G304 - password file path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read password file: %w", err)
	}
	defer secure.Zero(data)

	line := data
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return NewClearPassword(line)
}

// Bytes returns a copy of the password, or nil once cleared. Callers
// should zero the copy when done.
func (p *ClearPassword) Bytes() []byte {
	if p == nil || p.buf.Wiped() {
		return nil
	}
	return p.buf.Bytes()
}

// Use calls fn with the password without copying it. fn must not retain
// the slice.
func (p *ClearPassword) Use(fn func(password []byte) error) error {
	if p == nil {
		return ErrPasswordZeroed
	}
	if err := p.buf.View(fn); err != nil {
		if errors.Is(err, secure.ErrWiped) {
			return ErrPasswordZeroed
		}
		return err
	}
	return nil
}

// Clear zeroes the password. This operation is irreversible.
func (p *ClearPassword) Clear() {
	if p != nil {
		p.buf.Wipe()
	}
}

// Equal compares two passwords in constant time to prevent timing attacks.
func Equal(a, b *ClearPassword) (bool, error) {
	aBytes := a.Bytes()
	if aBytes == nil {
		return false, ErrPasswordZeroed
	}
	defer secure.Zero(aBytes)

	bBytes := b.Bytes()
	if bBytes == nil {
		return false, ErrPasswordZeroed
	}
	defer secure.Zero(bBytes)

	return secure.Equal(aBytes, bBytes), nil
}
