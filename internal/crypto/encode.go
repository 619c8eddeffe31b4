package crypto

import (
	"encoding/base64"

	"olmcore/internal/domain"
)

// Base64Encode encodes message bodies: standard alphabet, no padding.
func Base64Encode(b []byte) []byte {
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(b)))
	base64.RawStdEncoding.Encode(out, b)
	return out
}

// Base64Decode decodes an unpadded standard-alphabet string into a fresh
// buffer. The input is never modified.
func Base64Decode(b []byte) ([]byte, error) {
	out := make([]byte, base64.RawStdEncoding.DecodedLen(len(b)))
	n, err := base64.RawStdEncoding.Decode(out, b)
	if err != nil {
		return nil, domain.ErrInvalidBase64
	}
	return out[:n], nil
}

// Base64EncodePadded encodes encrypted pickles: standard alphabet with padding.
func Base64EncodePadded(b []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(out, b)
	return out
}

// Base64DecodePadded reverses Base64EncodePadded.
func Base64DecodePadded(b []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(b)))
	n, err := base64.StdEncoding.Decode(out, b)
	if err != nil {
		return nil, domain.ErrInvalidBase64
	}
	return out[:n], nil
}
