package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"

	"olmcore/internal/domain"
)

// SignatureLength is the size of an Ed25519 signature.
const SignatureLength = ed25519.SignatureSize

// GenerateEd25519 returns a new Ed25519 signing key pair read from random.
// If random is nil, crypto/rand is used.
func GenerateEd25519(random io.Reader) (domain.Ed25519KeyPair, error) {
	if random == nil {
		random = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return domain.Ed25519KeyPair{}, domain.ErrNotEnoughRandom
	}
	var pair domain.Ed25519KeyPair
	copy(pair.Public[:], pub)
	copy(pair.Private[:], priv)
	return pair, nil
}

// SignEd25519 signs msg and returns the 64-byte signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}
