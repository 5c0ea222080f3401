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
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/cloudflare/circl/dh/x448"
	"github.com/cloudflare/circl/sign/ed448"
	"github.com/jeremyhahn/go-pkcs8/pkg/algid"
	"github.com/jeremyhahn/go-pkcs8/pkg/pkcs8"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
)

// Marshal builds a container from a Go private key. Supported types are
// *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey, *ecdh.PrivateKey
// (X25519), ed448.PrivateKey and *x448.Key. When withPublicKey is set the
// container carries the public key and is version 2.
//
// A *pkcs8.Container is returned as is.
func Marshal(key crypto.PrivateKey, withPublicKey bool) (*pkcs8.Container, error) {
	switch k := key.(type) {
	case *pkcs8.Container:
		if k == nil {
			return nil, ErrUnsupportedKey
		}
		return k, nil
	case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey, *ecdh.PrivateKey:
		return marshalStandard(key, withPublicKey)
	case ed448.PrivateKey:
		if len(k) != ed448.PrivateKeySize {
			return nil, fmt.Errorf("%w: ed448 key is %d bytes", ErrUnsupportedKey, len(k))
		}
		var pub []byte
		if withPublicKey {
			pub = k.Public().(ed448.PublicKey)
		}
		seed := k.Seed()
		defer secure.Zero(seed)
		return marshalCurve(algid.New(algid.OIDEd448, nil), seed, pub)
	case *x448.Key:
		if k == nil {
			return nil, ErrUnsupportedKey
		}
		var pub []byte
		if withPublicKey {
			var p x448.Key
			x448.KeyGen(&p, k)
			pub = p[:]
		}
		return marshalCurve(algid.New(algid.OIDX448, nil), k[:], pub)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
}

func marshalStandard(key crypto.PrivateKey, withPublicKey bool) (*pkcs8.Container, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
	}
	defer secure.Zero(der)

	if withPublicKey {
		signer, ok := key.(interface{ Public() crypto.PublicKey })
		if !ok {
			return nil, fmt.Errorf("%w: %T has no public key", ErrUnsupportedKey, key)
		}
		spki, err := x509.MarshalPKIXPublicKey(signer.Public())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
		}
		combined, err := pkcs8.Combine(spki, der)
		if err != nil {
			return nil, err
		}
		defer secure.Zero(combined)
		return pkcs8.Decode(combined)
	}
	return pkcs8.Decode(der)
}

func marshalCurve(alg algid.Identifier, secret, pub []byte) (*pkcs8.Container, error) {
	km, err := marshalCurvePrivateKey(secret)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(km)

	var spki []byte
	if pub != nil {
		spki, err = pkcs8.MarshalPublicKeyInfo(alg, pub)
		if err != nil {
			return nil, err
		}
	}
	return pkcs8.New(alg, km, spki)
}
