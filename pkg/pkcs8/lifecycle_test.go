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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWipe(t *testing.T) {
	der := buildKey(t, versionField(1), algField(algid.RSA()), keyField(testKey),
		attrsField(testAttributes), pubField(0, []byte{0xaa}))
	c, err := Decode(der)
	require.NoError(t, err)

	// populate the cache so it is wiped too
	_, err = c.Encode()
	require.NoError(t, err)
	cached := c.encoded

	c.Wipe()

	assert.True(t, c.Wiped())
	assert.Equal(t, []byte{0, 0, 0}, c.KeyMaterial(), "length is preserved")
	assert.True(t, cached.Wiped())
	for _, b := range cached.Bytes() {
		require.Zero(t, b)
	}

	// public key and attributes are not sensitive
	assert.Equal(t, []byte{0xaa}, c.PublicKeyMaterial())
	assert.Equal(t, testAttributes, c.Attributes())

	_, err = c.Encode()
	assert.ErrorIs(t, err, ErrWiped)
	assert.Zero(t, c.Hash())

	assert.NotPanics(t, c.Wipe, "wipe is idempotent")
}

func TestWipe_BeforeEncode(t *testing.T) {
	c, err := New(algid.RSA(), testKey, nil)
	require.NoError(t, err)

	c.Wipe()
	_, err = c.Encode()
	assert.ErrorIs(t, err, ErrWiped, "encoding must not resurrect key material")
}

func TestWipe_NilContainer(t *testing.T) {
	var c *Container
	assert.NotPanics(t, c.Wipe)
	assert.False(t, c.Wiped())
}

func TestEqual(t *testing.T) {
	ed := algid.New(algid.OIDEd25519, nil)
	der := buildKey(t, versionField(0), algField(ed), keyField(testKey))

	decoded, err := Decode(der)
	require.NoError(t, err)
	built, err := New(ed, testKey, nil)
	require.NoError(t, err)

	t.Run("DecodedEqualsConstructed", func(t *testing.T) {
		assert.True(t, decoded.Equal(built))
		assert.True(t, built.Equal(decoded))
		assert.Equal(t, decoded.Hash(), built.Hash())
	})

	t.Run("Self", func(t *testing.T) {
		assert.True(t, decoded.Equal(decoded))
	})

	t.Run("DifferentKeyMaterial", func(t *testing.T) {
		other, err := New(ed, []byte{0x01, 0x02, 0x04}, nil)
		require.NoError(t, err)
		assert.False(t, decoded.Equal(other))
	})

	t.Run("DifferentLength", func(t *testing.T) {
		other, err := New(ed, []byte{0x01, 0x02}, nil)
		require.NoError(t, err)
		assert.False(t, decoded.Equal(other))
	})

	t.Run("V2NormalizedEqualsV1", func(t *testing.T) {
		v2, err := Decode(buildKey(t, versionField(1), algField(ed), keyField(testKey)))
		require.NoError(t, err)
		assert.True(t, v2.Equal(decoded))
	})

	t.Run("PublicKeyMakesDifference", func(t *testing.T) {
		spki, err := MarshalPublicKeyInfo(ed, []byte{0x01})
		require.NoError(t, err)
		withPub, err := New(ed, testKey, spki)
		require.NoError(t, err)
		assert.False(t, decoded.Equal(withPub))
	})

	t.Run("OtherEncoder", func(t *testing.T) {
		other := &fakeKey{der: append([]byte(nil), der...)}
		assert.True(t, decoded.Equal(other))
		assert.Equal(t, make([]byte, len(der)), other.last, "returned encoding is zeroed after comparison")

		assert.False(t, decoded.Equal(&fakeKey{der: []byte{0x30, 0x00}}))
	})

	t.Run("OtherEncoderComparedTwice", func(t *testing.T) {
		other := &fakeKey{der: append([]byte(nil), der...)}
		assert.True(t, decoded.Equal(other))
		assert.True(t, decoded.Equal(other))
		assert.True(t, Equal(other, decoded))
		assert.Equal(t, 3, other.calls)
		assert.Equal(t, der, other.der, "stored encoding survives comparisons")
	})

	t.Run("Nil", func(t *testing.T) {
		assert.False(t, decoded.Equal(nil))
		var nilContainer *Container
		assert.False(t, decoded.Equal(nilContainer))
		assert.False(t, Equal(nilContainer, nilContainer))
	})

	t.Run("Wiped", func(t *testing.T) {
		a, err := New(ed, testKey, nil)
		require.NoError(t, err)
		b, err := New(ed, testKey, nil)
		require.NoError(t, err)
		a.Wipe()
		assert.False(t, a.Equal(b))
		assert.False(t, b.Equal(a))
	})
}

func TestHash(t *testing.T) {
	ed := algid.New(algid.OIDEd25519, nil)
	a, err := New(ed, testKey, nil)
	require.NoError(t, err)
	b, err := New(ed, []byte{0x07}, nil)
	require.NoError(t, err)

	assert.NotZero(t, a.Hash())
	assert.Equal(t, a.Hash(), a.Hash())
	assert.NotEqual(t, a.Hash(), b.Hash())
}
