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
	"fmt"
)

var (
	// ErrNotASequence is returned when the input does not start with a DER SEQUENCE.
	ErrNotASequence = errors.New("pkcs8: invalid key format, expected SEQUENCE")

	// ErrUnsupportedVersion is returned for a version other than v1 (0) or v2 (1).
	ErrUnsupportedVersion = errors.New("pkcs8: unsupported version")

	// ErrBadAlgorithmID is returned when the privateKeyAlgorithm field cannot be parsed.
	ErrBadAlgorithmID = errors.New("pkcs8: invalid private key algorithm")

	// ErrMalformedField is returned when a field has the wrong tag or a bad encoding.
	ErrMalformedField = errors.New("pkcs8: malformed field")

	// ErrTrailingData is returned when bytes remain after the last permitted field.
	ErrTrailingData = errors.New("pkcs8: extra bytes")

	// ErrEncodeFailure is returned when the canonical encoding cannot be produced.
	ErrEncodeFailure = errors.New("pkcs8: encoding failed")

	// ErrWiped is returned when encoding a container whose key material has been wiped.
	ErrWiped = errors.New("pkcs8: key material has been wiped")

	// ErrEmptyKeyMaterial is returned when constructing a container without key material.
	ErrEmptyKeyMaterial = errors.New("pkcs8: key material is required")

	// ErrMalformedPublicKey is returned when a SubjectPublicKeyInfo cannot be parsed.
	ErrMalformedPublicKey = errors.New("pkcs8: malformed public key")
)

// ErrorKind classifies a DecodeError.
type ErrorKind int

const (
	KindNotASequence ErrorKind = iota + 1
	KindUnsupportedVersion
	KindBadAlgorithmID
	KindMalformedField
	KindTrailingData
)

// String returns a short, label-friendly name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNotASequence:
		return "not_a_sequence"
	case KindUnsupportedVersion:
		return "unsupported_version"
	case KindBadAlgorithmID:
		return "bad_algorithm_id"
	case KindMalformedField:
		return "malformed_field"
	case KindTrailingData:
		return "trailing_data"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotASequence:
		return ErrNotASequence
	case KindUnsupportedVersion:
		return ErrUnsupportedVersion
	case KindBadAlgorithmID:
		return ErrBadAlgorithmID
	case KindMalformedField:
		return ErrMalformedField
	case KindTrailingData:
		return ErrTrailingData
	default:
		return nil
	}
}

// Field names reported in DecodeError.Field.
const (
	FieldContainer  = "OneAsymmetricKey"
	FieldVersion    = "version"
	FieldAlgorithm  = "privateKeyAlgorithm"
	FieldPrivateKey = "privateKey"
	FieldAttributes = "attributes"
	FieldPublicKey  = "publicKey"
)

// DecodeError describes why an encoding was rejected.
//
// errors.Is matches the sentinel for the error's Kind and, through Unwrap,
// any underlying cause.
type DecodeError struct {
	Kind ErrorKind

	// Field is the ASN.1 field being read when decoding failed.
	Field string

	// Offset is the byte offset into the input where the field starts.
	Offset int

	// Version holds the rejected value for KindUnsupportedVersion.
	Version int64

	// Err is the underlying cause, if any.
	Err error
}

func (e *DecodeError) Error() string {
	msg := "pkcs8: decode error"
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	switch e.Kind {
	case KindUnsupportedVersion:
		msg = fmt.Sprintf("%s: %d", msg, e.Version)
	case KindTrailingData:
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	default:
		if e.Field != "" {
			msg = fmt.Sprintf("%s: %s at offset %d", msg, e.Field, e.Offset)
		}
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *DecodeError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
