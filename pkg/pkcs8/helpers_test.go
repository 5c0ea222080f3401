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
	"testing"

	"github.com/jeremyhahn/go-pkcs8/pkg/algid"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// field appends one element of a OneAsymmetricKey body.
type field func(b *cryptobyte.Builder)

func buildKey(t *testing.T, fields ...field) []byte {
	t.Helper()
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, f := range fields {
			f(b)
		}
	})
	der, err := b.Bytes()
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	return der
}

func versionField(v int64) field {
	return func(b *cryptobyte.Builder) { b.AddASN1Int64(v) }
}

func algField(id algid.Identifier) field {
	return func(b *cryptobyte.Builder) { id.Marshal(b) }
}

func keyField(key []byte) field {
	return func(b *cryptobyte.Builder) { b.AddASN1OctetString(key) }
}

func attrsField(content []byte) field {
	return func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.Tag(0).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddBytes(content)
		})
	}
}

func primitiveAttrsField(content []byte) field {
	return func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.Tag(0).ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddBytes(content)
		})
	}
}

func pubField(unused uint8, bits []byte) field {
	return func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.Tag(1).ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddUint8(unused)
			b.AddBytes(bits)
		})
	}
}

func rawField(raw ...byte) field {
	return func(b *cryptobyte.Builder) { b.AddBytes(raw) }
}

// a single friendlyName-shaped attribute; only its bytes matter here
var testAttributes = []byte{0x30, 0x03, 0x06, 0x01, 0x2a}

var testKey = []byte{0x01, 0x02, 0x03}

// fakeKey is an Encoder that is not a Container. Like every Encoder it
// hands out a copy of its encoding.
type fakeKey struct {
	der   []byte
	calls int

	// last is the most recent slice handed out
	last []byte
}

func (f *fakeKey) Encode() ([]byte, error) {
	f.calls++
	f.last = append([]byte(nil), f.der...)
	return f.last, nil
}
