package domain

import "crypto/subtle"

// ------------- Curve25519 -------------

// Curve25519Public is the 32-byte public component of a Curve25519 key.
type Curve25519Public [32]byte

// Curve25519Private is a clamped 32-byte Curve25519 scalar.
type Curve25519Private [32]byte

func (p Curve25519Public) Slice() []byte  { return p[:] }
func (k Curve25519Private) Slice() []byte { return k[:] }

// Equal compares two public keys in constant time.
func (p Curve25519Public) Equal(other Curve25519Public) bool {
	return subtle.ConstantTimeCompare(p[:], other[:]) == 1
}

// Curve25519KeyPair carries both halves of a Curve25519 key.
type Curve25519KeyPair struct {
	Public  Curve25519Public  `json:"public"`
	Private Curve25519Private `json:"private"`
}

// ------------- Ed25519 -------------

// Ed25519Public is a signing public key.
type Ed25519Public [32]byte

// Ed25519Private is a signing private key (crypto/ed25519 layout: seed ‖ public).
type Ed25519Private [64]byte

func (p Ed25519Public) Slice() []byte  { return p[:] }
func (k Ed25519Private) Slice() []byte { return k[:] }

// Ed25519KeyPair carries both halves of an Ed25519 key.
type Ed25519KeyPair struct {
	Public  Ed25519Public  `json:"public"`
	Private Ed25519Private `json:"private"`
}
