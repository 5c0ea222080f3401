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

// Package pkcs8 decodes and encodes PKCS#8 private keys in the
// OneAsymmetricKey form of RFC 5958:
//
//	OneAsymmetricKey ::= SEQUENCE {
//	   version                   Version,
//	   privateKeyAlgorithm       PrivateKeyAlgorithmIdentifier,
//	   privateKey                PrivateKey,
//	   attributes            [0] Attributes OPTIONAL,
//	   ...,
//	   [[2: publicKey        [1] PublicKey OPTIONAL ]],
//	   ...
//	}
//
// Decoding is strict: fields must appear in order, the public key is only
// accepted for version 2, and trailing bytes are rejected. The private key
// payload is kept opaque; turning it into a usable key is the job of the
// keyfactory package.
//
// Key material is held in secure buffers. Callers receive copies, and
// Wipe zeroes the key material together with the cached encoding.
//
// A Container is confined to one owner. It is not safe to Encode and Wipe
// the same container from different goroutines without external locking.
package pkcs8

import (
	"fmt"

	"github.com/jeremyhahn/go-pkcs8/pkg/algid"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
)

// Format is the key format name reported by Container.Format.
const Format = "PKCS#8"

// Version is the OneAsymmetricKey version field.
type Version int

const (
	// V1 is the PKCS#8 v1 (RFC 5208) layout.
	V1 Version = 0
	// V2 adds the optional embedded public key (RFC 5958).
	V2 Version = 1
)

// String returns "v1" or "v2".
func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// publicKey is the content of the [1] IMPLICIT BIT STRING field.
type publicKey struct {
	bits   []byte
	unused uint8
}

// Container is a decoded OneAsymmetricKey.
type Container struct {
	version    Version
	alg        algid.Identifier
	key        *secure.Buffer
	attributes []byte
	publicKey  *publicKey

	// canonical encoding, computed on first Encode
	encoded *secure.Buffer
}

// New builds a container from its parts. publicKeyInfo is an optional DER
// SubjectPublicKeyInfo whose algorithm must match alg; when present the
// container is version 2. All inputs are copied.
func New(alg algid.Identifier, keyMaterial []byte, publicKeyInfo []byte) (*Container, error) {
	if keyMaterial == nil {
		return nil, ErrEmptyKeyMaterial
	}
	if len(alg.OID) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrBadAlgorithmID, algid.ErrEmptyOID)
	}

	c := &Container{
		version: V1,
		alg:     alg.Clone(),
	}
	if publicKeyInfo != nil {
		spkiAlg, pub, err := parsePublicKeyInfo(publicKeyInfo)
		if err != nil {
			return nil, err
		}
		if !spkiAlg.OID.Equal(alg.OID) {
			return nil, fmt.Errorf("%w: algorithm %s does not match private key algorithm %s",
				ErrMalformedPublicKey, spkiAlg.Name(), alg.Name())
		}
		c.publicKey = pub
		c.version = V2
	}
	c.key = secure.NewBuffer(keyMaterial)
	return c, nil
}

// Version returns the version the container was decoded or built with.
func (c *Container) Version() Version {
	return c.version
}

// AlgorithmID returns a copy of the private key algorithm identifier.
func (c *Container) AlgorithmID() algid.Identifier {
	return c.alg.Clone()
}

// Algorithm returns the algorithm name, e.g. "RSA" or "Ed25519".
func (c *Container) Algorithm() string {
	return c.alg.Name()
}

// Format returns "PKCS#8".
func (c *Container) Format() string {
	return Format
}

// KeyMaterial returns a copy of the private key payload. After Wipe the
// copy is all zeros with the original length.
func (c *Container) KeyMaterial() []byte {
	return c.key.Bytes()
}

// Attributes returns a copy of the raw [0] attributes content, or nil.
func (c *Container) Attributes() []byte {
	if c.attributes == nil {
		return nil
	}
	return append([]byte(nil), c.attributes...)
}

// HasPublicKey reports whether the container embeds a public key.
func (c *Container) HasPublicKey() bool {
	return c.publicKey != nil
}

// PublicKeyMaterial returns a copy of the subject public key bits, or nil.
func (c *Container) PublicKeyMaterial() []byte {
	if c.publicKey == nil {
		return nil
	}
	return append([]byte(nil), c.publicKey.bits...)
}

// PublicKeyInfo returns the embedded public key as a DER
// SubjectPublicKeyInfo using the container's algorithm identifier, or nil
// when there is no public key.
func (c *Container) PublicKeyInfo() ([]byte, error) {
	if c.publicKey == nil {
		return nil, nil
	}
	return marshalPublicKeyInfo(c.alg, c.publicKey)
}

// String describes the container without revealing key material.
func (c *Container) String() string {
	s := fmt.Sprintf("%s %s %s", Format, c.version, c.alg.Name())
	if c.publicKey != nil {
		s += " with public key"
	}
	if c.key.Wiped() {
		s += " (wiped)"
	}
	return s
}
