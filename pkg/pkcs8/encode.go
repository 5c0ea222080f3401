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
	"fmt"

	"github.com/jeremyhahn/go-pkcs8/pkg/algid"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Encode returns the canonical DER encoding of the container. The encoding
// is computed once and cached; each call returns a fresh copy.
//
// The emitted version is 1 when a public key is present and 0 otherwise,
// regardless of the version the container was decoded with.
func (c *Container) Encode() ([]byte, error) {
	if err := c.ensureEncoded(); err != nil {
		return nil, err
	}
	return c.encoded.Bytes(), nil
}

func (c *Container) ensureEncoded() error {
	if c == nil || c.key == nil {
		return fmt.Errorf("%w: container has no key material", ErrEncodeFailure)
	}
	if c.key.Wiped() {
		return ErrWiped
	}
	if c.encoded != nil {
		return nil
	}
	der, err := c.generateEncoding()
	if err != nil {
		return err
	}
	c.encoded = secure.TakeBuffer(der)
	return nil
}

func (c *Container) generateEncoding() ([]byte, error) {
	algDER, err := c.alg.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}

	// version INTEGER 0 or 1
	content := 3 + len(algDER) + tlvLen(c.key.Len())
	if c.attributes != nil {
		content += tlvLen(len(c.attributes))
	}
	if c.publicKey != nil {
		content += tlvLen(1 + len(c.publicKey.bits))
	}
	// sized exactly; a fixed builder fails rather than reallocate and
	// leave key bytes behind in a discarded array
	scratch := make([]byte, 0, tlvLen(content))

	var der []byte
	err = c.key.View(func(key []byte) error {
		b := cryptobyte.NewFixedBuilder(scratch)
		b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			if c.publicKey != nil {
				b.AddASN1Int64(int64(V2))
			} else {
				b.AddASN1Int64(int64(V1))
			}
			b.AddBytes(algDER)
			b.AddASN1OctetString(key)
			if c.attributes != nil {
				b.AddASN1(tagAttributes, func(b *cryptobyte.Builder) {
					b.AddBytes(c.attributes)
				})
			}
			if c.publicKey != nil {
				b.AddASN1(tagPublicKey, func(b *cryptobyte.Builder) {
					c.publicKey.marshalContent(b)
				})
			}
		})
		out, err := b.Bytes()
		if err != nil {
			return err
		}
		der = out
		return nil
	})
	if err != nil {
		secure.Zero(scratch[:cap(scratch)])
		if err == secure.ErrWiped {
			return nil, ErrWiped
		}
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}
	return der, nil
}

// tlvLen is the size of a DER element with n content bytes
func tlvLen(n int) int {
	size := 2 + n
	for l := n; l > 0x7f; l >>= 8 {
		size++
	}
	return size
}

func (p *publicKey) marshalContent(b *cryptobyte.Builder) {
	b.AddUint8(p.unused)
	b.AddBytes(p.bits)
}

func marshalPublicKeyInfo(alg algid.Identifier, pub *publicKey) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		alg.Marshal(b)
		b.AddASN1(asn1.BIT_STRING, func(b *cryptobyte.Builder) {
			pub.marshalContent(b)
		})
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrEncodeFailure, err)
	}
	return der, nil
}

// MarshalPublicKeyInfo encodes a SubjectPublicKeyInfo for alg whose
// subject public key is the whole bytes of key.
func MarshalPublicKeyInfo(alg algid.Identifier, key []byte) ([]byte, error) {
	return marshalPublicKeyInfo(alg, &publicKey{bits: key})
}

// Combine attaches a public key to an existing PKCS#8 encoding and returns
// the version 2 canonical encoding. publicKeyInfo is a DER
// SubjectPublicKeyInfo. Attributes in privateKeyDER are preserved.
func Combine(publicKeyInfo, privateKeyDER []byte) ([]byte, error) {
	c, err := Decode(privateKeyDER)
	if err != nil {
		return nil, err
	}
	defer c.Wipe()

	spkiAlg, pub, err := parsePublicKeyInfo(publicKeyInfo)
	if err != nil {
		return nil, err
	}
	if !spkiAlg.OID.Equal(c.alg.OID) {
		return nil, fmt.Errorf("%w: algorithm %s does not match private key algorithm %s",
			ErrMalformedPublicKey, spkiAlg.Name(), c.alg.Name())
	}
	c.publicKey = pub
	c.version = V2
	c.dropEncoding()

	return c.Encode()
}

// dropEncoding wipes and forgets the cached encoding after a field change.
func (c *Container) dropEncoding() {
	if c.encoded != nil {
		c.encoded.Wipe()
		c.encoded = nil
	}
}
