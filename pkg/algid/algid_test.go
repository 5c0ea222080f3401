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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
)

var (
	derEd25519 = []byte{0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x70}
	derRSA     = []byte{
		0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01, 0x05, 0x00,
	}
	derECP256 = []byte{
		0x30, 0x13,
		0x06, 0x07, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x02, 0x01,
		0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07,
	}
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		der        []byte
		wantName   string
		wantParams []byte
	}{
		{"Ed25519", derEd25519, NameEd25519, nil},
		{"RSAWithNull", derRSA, NameRSA, []byte{0x05, 0x00}},
		{"ECP256", derECP256, NameEC, []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Parse(tt.der)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, id.Name())
			assert.Equal(t, tt.wantParams, id.Parameters)

			enc, err := id.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.der, enc, "re-encoding must be bit-exact")
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		der  []byte
	}{
		{"Empty", nil},
		{"NotSequence", []byte{0x04, 0x01, 0x00}},
		{"MissingOID", []byte{0x30, 0x02, 0x05, 0x00}},
		{"TruncatedLength", []byte{0x30, 0x07, 0x06, 0x03, 0x2b, 0x65}},
		{"ExtraElement", []byte{0x30, 0x09, 0x06, 0x03, 0x2b, 0x65, 0x70, 0x05, 0x00, 0x05, 0x00}},
		{"TrailingAfterSequence", append(append([]byte(nil), derEd25519...), 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.der)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestReadFrom_AdvancesCursor(t *testing.T) {
	input := append(append([]byte(nil), derEd25519...), 0x04, 0x01, 0xff)
	s := cryptobyte.String(input)

	id, err := ReadFrom(&s)
	require.NoError(t, err)
	assert.Equal(t, NameEd25519, id.Name())
	assert.Equal(t, []byte{0x04, 0x01, 0xff}, []byte(s))

	// the identifier must not alias the input
	input[len(derEd25519)-1] = 0x71
	assert.Equal(t, NameEd25519, id.Name())
}

func TestEncode_EmptyOID(t *testing.T) {
	_, err := Identifier{}.Encode()
	assert.ErrorIs(t, err, ErrEmptyOID)
}

func TestName_Unknown(t *testing.T) {
	id := New(encasn1.ObjectIdentifier{1, 2, 3, 4}, nil)
	assert.Equal(t, "1.2.3.4", id.Name())
	assert.False(t, id.Known())
}

func TestCurve(t *testing.T) {
	id, err := Parse(derECP256)
	require.NoError(t, err)

	curve, ok := id.Curve()
	assert.True(t, ok)
	assert.Equal(t, "P-256", curve)

	_, ok = RSA().Curve()
	assert.False(t, ok)

	brainpool := EC(OIDCurveBrainpoolP384r1)
	curve, ok = brainpool.Curve()
	assert.True(t, ok)
	assert.Equal(t, "brainpoolP384r1", curve)
}

func TestEC_MatchesParsed(t *testing.T) {
	parsed, err := Parse(derECP256)
	require.NoError(t, err)
	assert.True(t, EC(OIDCurveP256).Equal(parsed))
}

func TestForName(t *testing.T) {
	id, err := ForName(NameRSA)
	require.NoError(t, err)
	enc, err := id.Encode()
	require.NoError(t, err)
	assert.Equal(t, derRSA, enc)

	id, err = ForName(NameEd25519)
	require.NoError(t, err)
	enc, err = id.Encode()
	require.NoError(t, err)
	assert.Equal(t, derEd25519, enc)

	_, err = ForName(NameEC)
	assert.Error(t, err)
}

func TestClone_IsIndependent(t *testing.T) {
	orig := RSA()
	clone := orig.Clone()
	clone.Parameters[0] = 0xff
	clone.OID[0] = 2

	assert.Equal(t, []byte{0x05, 0x00}, orig.Parameters)
	assert.Equal(t, NameRSA, orig.Name())
}

func TestNames_Sorted(t *testing.T) {
	all := Names()
	assert.Contains(t, all, NameMLKEM768)
	assert.IsIncreasing(t, all)
}
