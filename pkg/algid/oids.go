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

package algid

import (
	encasn1 "encoding/asn1"
	"fmt"
	"sort"

	"golang.org/x/crypto/cryptobyte"
)

// Algorithm names returned by Identifier.Name.
const (
	NameRSA       = "RSA"
	NameRSAPSS    = "RSASSA-PSS"
	NameDSA       = "DSA"
	NameDH        = "DH"
	NameEC        = "EC"
	NameX25519    = "X25519"
	NameX448      = "X448"
	NameEd25519   = "Ed25519"
	NameEd448     = "Ed448"
	NameMLDSA44   = "ML-DSA-44"
	NameMLDSA65   = "ML-DSA-65"
	NameMLDSA87   = "ML-DSA-87"
	NameMLKEM512  = "ML-KEM-512"
	NameMLKEM768  = "ML-KEM-768"
	NameMLKEM1024 = "ML-KEM-1024"
)

// Public key algorithm OIDs.
var (
	OIDPublicKeyRSA    = encasn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	OIDPublicKeyRSAPSS = encasn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	OIDPublicKeyDSA    = encasn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	OIDPublicKeyDH     = encasn1.ObjectIdentifier{1, 2, 840, 113549, 1, 3, 1}
	OIDPublicKeyX942DH = encasn1.ObjectIdentifier{1, 2, 840, 10046, 2, 1}
	OIDPublicKeyEC     = encasn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	OIDX25519          = encasn1.ObjectIdentifier{1, 3, 101, 110}
	OIDX448            = encasn1.ObjectIdentifier{1, 3, 101, 111}
	OIDEd25519         = encasn1.ObjectIdentifier{1, 3, 101, 112}
	OIDEd448           = encasn1.ObjectIdentifier{1, 3, 101, 113}
	OIDMLDSA44         = encasn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 17}
	OIDMLDSA65         = encasn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 18}
	OIDMLDSA87         = encasn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 19}
	OIDMLKEM512        = encasn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 4, 1}
	OIDMLKEM768        = encasn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 4, 2}
	OIDMLKEM1024       = encasn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 4, 3}
)

// Named curve OIDs used as EC parameters.
var (
	OIDCurveP224            = encasn1.ObjectIdentifier{1, 3, 132, 0, 33}
	OIDCurveP256            = encasn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	OIDCurveP384            = encasn1.ObjectIdentifier{1, 3, 132, 0, 34}
	OIDCurveP521            = encasn1.ObjectIdentifier{1, 3, 132, 0, 35}
	OIDCurveBrainpoolP256r1 = encasn1.ObjectIdentifier{1, 3, 36, 3, 3, 2, 8, 1, 1, 7}
	OIDCurveBrainpoolP384r1 = encasn1.ObjectIdentifier{1, 3, 36, 3, 3, 2, 8, 1, 1, 11}
	OIDCurveBrainpoolP512r1 = encasn1.ObjectIdentifier{1, 3, 36, 3, 3, 2, 8, 1, 1, 13}
)

var asn1Null = []byte{0x05, 0x00}

var names = map[string]string{
	OIDPublicKeyRSA.String():    NameRSA,
	OIDPublicKeyRSAPSS.String(): NameRSAPSS,
	OIDPublicKeyDSA.String():    NameDSA,
	OIDPublicKeyDH.String():     NameDH,
	OIDPublicKeyX942DH.String(): NameDH,
	OIDPublicKeyEC.String():     NameEC,
	OIDX25519.String():          NameX25519,
	OIDX448.String():            NameX448,
	OIDEd25519.String():         NameEd25519,
	OIDEd448.String():           NameEd448,
	OIDMLDSA44.String():         NameMLDSA44,
	OIDMLDSA65.String():         NameMLDSA65,
	OIDMLDSA87.String():         NameMLDSA87,
	OIDMLKEM512.String():        NameMLKEM512,
	OIDMLKEM768.String():        NameMLKEM768,
	OIDMLKEM1024.String():       NameMLKEM1024,
}

var curves = map[string]string{
	OIDCurveP224.String():            "P-224",
	OIDCurveP256.String():            "P-256",
	OIDCurveP384.String():            "P-384",
	OIDCurveP521.String():            "P-521",
	OIDCurveBrainpoolP256r1.String(): "brainpoolP256r1",
	OIDCurveBrainpoolP384r1.String(): "brainpoolP384r1",
	OIDCurveBrainpoolP512r1.String(): "brainpoolP512r1",
}

// byName maps names that need no parameters (other than RSA's NULL) back to
// their canonical identifiers. The first OID wins for DH.
var byName = map[string]func() Identifier{
	NameRSA:       RSA,
	NameRSAPSS:    func() Identifier { return New(OIDPublicKeyRSAPSS, nil) },
	NameX25519:    func() Identifier { return New(OIDX25519, nil) },
	NameX448:      func() Identifier { return New(OIDX448, nil) },
	NameEd25519:   func() Identifier { return New(OIDEd25519, nil) },
	NameEd448:     func() Identifier { return New(OIDEd448, nil) },
	NameMLDSA44:   func() Identifier { return New(OIDMLDSA44, nil) },
	NameMLDSA65:   func() Identifier { return New(OIDMLDSA65, nil) },
	NameMLDSA87:   func() Identifier { return New(OIDMLDSA87, nil) },
	NameMLKEM512:  func() Identifier { return New(OIDMLKEM512, nil) },
	NameMLKEM768:  func() Identifier { return New(OIDMLKEM768, nil) },
	NameMLKEM1024: func() Identifier { return New(OIDMLKEM1024, nil) },
}

// RSA returns the rsaEncryption identifier with its NULL parameters.
func RSA() Identifier {
	return New(OIDPublicKeyRSA, asn1Null)
}

// EC returns an id-ecPublicKey identifier for the named curve.
func EC(curve encasn1.ObjectIdentifier) Identifier {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1ObjectIdentifier(curve)
	return Identifier{
		OID:        append(encasn1.ObjectIdentifier(nil), OIDPublicKeyEC...),
		Parameters: b.BytesOrPanic(),
	}
}

// ForName returns the canonical identifier for a parameterless algorithm
// name. EC, DSA and DH need parameters and are not resolvable by name.
func ForName(name string) (Identifier, error) {
	fn, ok := byName[name]
	if !ok {
		return Identifier{}, fmt.Errorf("algid: no canonical identifier for %q", name)
	}
	return fn(), nil
}

// Names returns every registered algorithm name, sorted.
func Names() []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
