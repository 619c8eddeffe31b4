package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/curve25519"

	"olmcore/internal/domain"
)

// KeyLength is the size of Curve25519 keys and shared secrets.
const KeyLength = 32

// GenerateCurve25519 returns a fresh Curve25519 key pair read from random.
// The private key is clamped per RFC 7748. If random is nil, crypto/rand is
// used.
func GenerateCurve25519(random io.Reader) (domain.Curve25519KeyPair, error) {
	if random == nil {
		random = rand.Reader
	}
	var pair domain.Curve25519KeyPair
	if _, err := io.ReadFull(random, pair.Private[:]); err != nil {
		return domain.Curve25519KeyPair{}, domain.ErrNotEnoughRandom
	}
	clamp(&pair.Private)
	pub, err := curve25519.X25519(pair.Private.Slice(), curve25519.Basepoint)
	if err != nil {
		return domain.Curve25519KeyPair{}, err
	}
	copy(pair.Public[:], pub)
	return pair, nil
}

// SharedSecret computes X25519 Diffie-Hellman.
func SharedSecret(priv domain.Curve25519Private, pub domain.Curve25519Public) ([]byte, error) {
	return curve25519.X25519(priv.Slice(), pub.Slice())
}

// Fingerprint returns a short hex digest of a public key for display.
func Fingerprint(pub domain.Curve25519Public) string {
	sum := sha256.Sum256(pub[:])
	return hex.EncodeToString(sum[:10])
}

func clamp(k *domain.Curve25519Private) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
