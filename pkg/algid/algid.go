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

// Package algid parses and encodes X.509 AlgorithmIdentifier values.
//
//	AlgorithmIdentifier ::= SEQUENCE {
//	    algorithm   OBJECT IDENTIFIER,
//	    parameters  ANY DEFINED BY algorithm OPTIONAL
//	}
//
// Parameters are kept as raw DER so that re-encoding is bit-exact,
// including an explicit NULL.
package algid

import (
	"bytes"
	encasn1 "encoding/asn1"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	// ErrMalformed is returned when an AlgorithmIdentifier cannot be parsed.
	ErrMalformed = errors.New("algid: malformed algorithm identifier")

	// ErrEmptyOID is returned when encoding an identifier without an OID.
	ErrEmptyOID = errors.New("algid: empty object identifier")
)

// Identifier is a parsed AlgorithmIdentifier.
type Identifier struct {
	// OID is the algorithm object identifier.
	OID encasn1.ObjectIdentifier

	// Parameters is the complete DER element of the parameters field,
	// or nil when the field is absent.
	Parameters []byte
}

// New returns an Identifier for oid with the given raw DER parameters.
// Both arguments are copied.
func New(oid encasn1.ObjectIdentifier, params []byte) Identifier {
	id := Identifier{OID: append(encasn1.ObjectIdentifier(nil), oid...)}
	if params != nil {
		id.Parameters = append([]byte(nil), params...)
	}
	return id
}

// Parse decodes a single DER AlgorithmIdentifier. Bytes after the
// SEQUENCE are rejected.
func Parse(der []byte) (Identifier, error) {
	s := cryptobyte.String(der)
	id, err := ReadFrom(&s)
	if err != nil {
		return Identifier{}, err
	}
	if !s.Empty() {
		return Identifier{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(s))
	}
	return id, nil
}

// ReadFrom reads one AlgorithmIdentifier from the front of s and advances
// it. The returned Identifier does not alias s.
func ReadFrom(s *cryptobyte.String) (Identifier, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, asn1.SEQUENCE) {
		return Identifier{}, fmt.Errorf("%w: expected SEQUENCE", ErrMalformed)
	}

	var oid encasn1.ObjectIdentifier
	if !seq.ReadASN1ObjectIdentifier(&oid) {
		return Identifier{}, fmt.Errorf("%w: invalid algorithm OID", ErrMalformed)
	}

	id := Identifier{OID: oid}
	if seq.Empty() {
		return id, nil
	}

	var params cryptobyte.String
	var tag asn1.Tag
	if !seq.ReadAnyASN1Element(&params, &tag) {
		return Identifier{}, fmt.Errorf("%w: invalid parameters", ErrMalformed)
	}
	if !seq.Empty() {
		return Identifier{}, fmt.Errorf("%w: unexpected data after parameters", ErrMalformed)
	}
	id.Parameters = append([]byte(nil), params...)
	return id, nil
}

// Marshal appends the DER encoding of id to b. An empty OID sets an error
// on the builder.
func (id Identifier) Marshal(b *cryptobyte.Builder) {
	if len(id.OID) == 0 {
		b.SetError(ErrEmptyOID)
		return
	}
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(id.OID)
		if len(id.Parameters) > 0 {
			b.AddBytes(id.Parameters)
		}
	})
}

// Encode returns the DER encoding of id.
func (id Identifier) Encode() ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	id.Marshal(b)
	der, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("algid: encode %s: %w", id.OID, err)
	}
	return der, nil
}

// Name returns the registered algorithm name, or the dotted OID when the
// algorithm is unknown.
func (id Identifier) Name() string {
	if name, ok := names[id.OID.String()]; ok {
		return name
	}
	return id.OID.String()
}

// Known reports whether the OID has a registered name.
func (id Identifier) Known() bool {
	_, ok := names[id.OID.String()]
	return ok
}

// Curve returns the named curve carried in EC parameters.
func (id Identifier) Curve() (string, bool) {
	if !id.OID.Equal(OIDPublicKeyEC) || len(id.Parameters) == 0 {
		return "", false
	}
	s := cryptobyte.String(id.Parameters)
	var oid encasn1.ObjectIdentifier
	if !s.ReadASN1ObjectIdentifier(&oid) || !s.Empty() {
		return "", false
	}
	if name, ok := curves[oid.String()]; ok {
		return name, true
	}
	return oid.String(), true
}

// Equal reports whether both identifiers carry the same OID and parameters.
func (id Identifier) Equal(o Identifier) bool {
	return id.OID.Equal(o.OID) && bytes.Equal(id.Parameters, o.Parameters)
}

// Clone returns a deep copy of id.
func (id Identifier) Clone() Identifier {
	return New(id.OID, id.Parameters)
}

// String implements fmt.Stringer.
func (id Identifier) String() string {
	return id.Name()
}
