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
	"errors"

	"github.com/jeremyhahn/go-pkcs8/pkg/algid"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	// attributes are a SET OF, so the implicit tag is constructed
	tagAttributes = asn1.Tag(0).Constructed().ContextSpecific()
	// some encoders emit [0] with the primitive bit; accepted on input only
	tagAttributesPrimitive = asn1.Tag(0).ContextSpecific()
	tagPublicKey           = asn1.Tag(1).ContextSpecific()
)

// decoder tracks the cursor over the OneAsymmetricKey body so errors can
// report the byte offset of the failing field.
type decoder struct {
	input []byte
	rest  cryptobyte.String // bytes after the outer SEQUENCE
	body  cryptobyte.String // unread bytes inside the outer SEQUENCE
}

func (d *decoder) offset() int {
	return len(d.input) - len(d.rest) - len(d.body)
}

func (d *decoder) fail(kind ErrorKind, field string, err error) *DecodeError {
	return &DecodeError{Kind: kind, Field: field, Offset: d.offset(), Err: err}
}

// Decode parses a DER OneAsymmetricKey. The input is not retained.
//
// On failure no container is returned and any key material copied so far
// has been wiped.
func Decode(der []byte) (*Container, error) {
	d := &decoder{input: der, rest: cryptobyte.String(der)}

	if !d.rest.PeekASN1Tag(asn1.SEQUENCE) {
		return nil, &DecodeError{Kind: KindNotASequence, Field: FieldContainer}
	}
	if !d.rest.ReadASN1(&d.body, asn1.SEQUENCE) {
		return nil, &DecodeError{Kind: KindMalformedField, Field: FieldContainer,
			Err: errors.New("invalid SEQUENCE length")}
	}

	c, err := d.decodeBody()
	if err != nil {
		return nil, err
	}
	if !d.rest.Empty() {
		c.Wipe()
		return nil, &DecodeError{Kind: KindTrailingData, Offset: len(der) - len(d.rest)}
	}
	return c, nil
}

func (d *decoder) decodeBody() (c *Container, err error) {
	c = &Container{}
	defer func() {
		if err != nil {
			c.key.Wipe()
			c = nil
		}
	}()

	versionOffset := d.offset()
	var version int64
	if !d.body.ReadASN1Integer(&version) {
		return c, &DecodeError{Kind: KindMalformedField, Field: FieldVersion, Offset: versionOffset,
			Err: errors.New("expected INTEGER")}
	}
	switch Version(version) {
	case V1, V2:
		c.version = Version(version)
	default:
		return c, &DecodeError{Kind: KindUnsupportedVersion, Field: FieldVersion, Offset: versionOffset,
			Version: version}
	}

	algOffset := d.offset()
	var algElem cryptobyte.String
	var algTag asn1.Tag
	if !d.body.ReadAnyASN1Element(&algElem, &algTag) {
		return c, &DecodeError{Kind: KindBadAlgorithmID, Field: FieldAlgorithm, Offset: algOffset,
			Err: algid.ErrMalformed}
	}
	alg, err := algid.Parse(algElem)
	if err != nil {
		return c, &DecodeError{Kind: KindBadAlgorithmID, Field: FieldAlgorithm, Offset: algOffset, Err: err}
	}
	c.alg = alg

	var keyMaterial cryptobyte.String
	if !d.body.ReadASN1(&keyMaterial, asn1.OCTET_STRING) {
		return c, d.fail(KindMalformedField, FieldPrivateKey, errors.New("expected OCTET STRING"))
	}
	c.key = secure.NewBuffer(keyMaterial)

	if d.body.Empty() {
		return c, nil
	}

	if err := d.readAttributes(c); err != nil {
		return c, err
	}
	if d.body.Empty() {
		return c, nil
	}

	if c.version == V2 {
		if err := d.readPublicKey(c); err != nil {
			return c, err
		}
		if d.body.Empty() {
			return c, nil
		}
	}

	return c, d.fail(KindTrailingData, "", nil)
}

// readAttributes consumes an optional [0] IMPLICIT SET OF Attribute and
// keeps its content octets.
func (d *decoder) readAttributes(c *Container) error {
	tag := tagAttributes
	if !d.body.PeekASN1Tag(tag) {
		if !d.body.PeekASN1Tag(tagAttributesPrimitive) {
			return nil
		}
		tag = tagAttributesPrimitive
	}

	var attrs cryptobyte.String
	if !d.body.ReadASN1(&attrs, tag) {
		return d.fail(KindMalformedField, FieldAttributes, errors.New("invalid [0] element"))
	}
	c.attributes = append(make([]byte, 0, len(attrs)), attrs...)
	return nil
}

// readPublicKey consumes an optional [1] IMPLICIT BIT STRING.
func (d *decoder) readPublicKey(c *Container) error {
	start := d.offset()
	var raw cryptobyte.String
	var present bool
	if !d.body.ReadOptionalASN1(&raw, &present, tagPublicKey) {
		return &DecodeError{Kind: KindMalformedField, Field: FieldPublicKey, Offset: start,
			Err: errors.New("invalid [1] element")}
	}
	if !present {
		return nil
	}

	pub, err := parseBitString(raw)
	if err != nil {
		return &DecodeError{Kind: KindMalformedField, Field: FieldPublicKey, Offset: start, Err: err}
	}
	c.publicKey = pub
	return nil
}

// parseBitString decodes the content octets of a DER BIT STRING whose
// length need not be a multiple of eight.
func parseBitString(content []byte) (*publicKey, error) {
	if len(content) == 0 {
		return nil, errors.New("empty BIT STRING")
	}
	unused := content[0]
	data := content[1:]
	if unused > 7 || (len(data) == 0 && unused != 0) {
		return nil, errors.New("invalid BIT STRING padding")
	}
	if len(data) > 0 && data[len(data)-1]&(1<<unused-1) != 0 {
		return nil, errors.New("non-zero BIT STRING padding bits")
	}
	return &publicKey{
		bits:   append(make([]byte, 0, len(data)), data...),
		unused: unused,
	}, nil
}

// parsePublicKeyInfo decodes a DER SubjectPublicKeyInfo.
func parsePublicKeyInfo(der []byte) (algid.Identifier, *publicKey, error) {
	s := cryptobyte.String(der)
	var spki cryptobyte.String
	if !s.ReadASN1(&spki, asn1.SEQUENCE) || !s.Empty() {
		return algid.Identifier{}, nil, ErrMalformedPublicKey
	}
	alg, err := algid.ReadFrom(&spki)
	if err != nil {
		return algid.Identifier{}, nil, errors.Join(ErrMalformedPublicKey, err)
	}
	var content cryptobyte.String
	if !spki.ReadASN1(&content, asn1.BIT_STRING) || !spki.Empty() {
		return algid.Identifier{}, nil, ErrMalformedPublicKey
	}
	pub, err := parseBitString(content)
	if err != nil {
		return algid.Identifier{}, nil, errors.Join(ErrMalformedPublicKey, err)
	}
	return alg, pub, nil
}
