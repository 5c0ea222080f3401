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

import (
	"crypto"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-pkcs8/pkg/pkcs8"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
	youmark "github.com/youmark/pkcs8"
)

// DecryptContainer opens a DER EncryptedPrivateKeyInfo with password and
// returns the plaintext key as a V1 container.
//
// Supported payloads are those understood by crypto/x509: RSA, EC, Ed25519
// and X25519.
func DecryptContainer(der, password []byte) (*pkcs8.Container, error) {
	if len(der) == 0 {
		return nil, ErrInvalidData
	}
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}

	key, err := youmark.ParsePKCS8PrivateKey(der, password)
	if err != nil {
		if isPasswordError(err) {
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("keyfactory: failed to decrypt PKCS#8: %w", err)
	}
	return Marshal(key, false)
}

// EncryptContainer encrypts key as a DER EncryptedPrivateKeyInfo using
// PBES2 with the library defaults (PBKDF2-SHA256, AES-256-CBC).
func EncryptContainer(key crypto.PrivateKey, password []byte) ([]byte, error) {
	if key == nil {
		return nil, ErrUnsupportedKey
	}
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}

	if c, ok := key.(*pkcs8.Container); ok {
		typed, err := typedKey(c)
		if err != nil {
			return nil, err
		}
		key = typed
	}

	der, err := youmark.MarshalPrivateKey(key, password, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
	}
	return der, nil
}

// typedKey converts a container into a key crypto/x509 can marshal.
func typedKey(c *pkcs8.Container) (crypto.PrivateKey, error) {
	der, err := c.Encode()
	if err != nil {
		return nil, err
	}
	defer secure.Zero(der)

	key, err := ParseKey(der)
	if err != nil {
		return nil, err
	}
	if raw, ok := key.(*pkcs8.Container); ok {
		raw.Wipe()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKey, c.Algorithm())
	}
	return key, nil
}

// isPasswordError reports whether err looks like a wrong password. A bad
// key usually fails the padding check; when the padding happens to be
// valid the garbage plaintext fails to parse instead.
func isPasswordError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"incorrect password",
		"asn1: structure error",
		"tags don't match",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
