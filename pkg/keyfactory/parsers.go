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
	"crypto/x509"
	"fmt"

	"github.com/cloudflare/circl/dh/x448"
	"github.com/cloudflare/circl/sign/ed448"
	"github.com/jeremyhahn/go-pkcs8/pkg/pkcs8"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// parseStandard hands the V1 form of the container to crypto/x509, which
// rejects the v2 fields.
func parseStandard(c *pkcs8.Container) (crypto.PrivateKey, error) {
	km := c.KeyMaterial()
	defer secure.Zero(km)

	v1, err := pkcs8.New(c.AlgorithmID(), km, nil)
	if err != nil {
		return nil, err
	}
	defer v1.Wipe()

	der, err := v1.Encode()
	if err != nil {
		return nil, err
	}
	defer secure.Zero(der)

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyMaterial, err)
	}
	return key, nil
}

// parseEd448 expects a CurvePrivateKey: an OCTET STRING holding the seed.
func parseEd448(c *pkcs8.Container) (crypto.PrivateKey, error) {
	km := c.KeyMaterial()
	defer secure.Zero(km)

	seed, err := curvePrivateKey(km, ed448.SeedSize)
	if err != nil {
		return nil, err
	}
	return ed448.NewKeyFromSeed(seed), nil
}

func parseX448(c *pkcs8.Container) (crypto.PrivateKey, error) {
	km := c.KeyMaterial()
	defer secure.Zero(km)

	secret, err := curvePrivateKey(km, x448.Size)
	if err != nil {
		return nil, err
	}
	key := new(x448.Key)
	copy(key[:], secret)
	return key, nil
}

// curvePrivateKey unwraps the RFC 8410 CurvePrivateKey octet string. The
// returned slice aliases km.
func curvePrivateKey(km []byte, size int) ([]byte, error) {
	var inner cryptobyte.String
	s := cryptobyte.String(km)
	if !s.ReadASN1(&inner, asn1.OCTET_STRING) || !s.Empty() {
		return nil, fmt.Errorf("%w: expected CurvePrivateKey", ErrInvalidKeyMaterial)
	}
	if len(inner) != size {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", ErrInvalidKeyMaterial, len(inner), size)
	}
	return inner, nil
}

func marshalCurvePrivateKey(secret []byte) ([]byte, error) {
	b := cryptobyte.NewFixedBuilder(make([]byte, 0, len(secret)+2))
	b.AddASN1OctetString(secret)
	return b.Bytes()
}
