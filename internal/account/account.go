package account

import (
	"io"

	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/util/memzero"
)

// MaxOneTimeKeys bounds the held one-time keys; generating past the cap
// evicts the oldest.
const MaxOneTimeKeys = 100

// OneTimeKey is a single-use Curve25519 pair offered to session initiators.
type OneTimeKey struct {
	ID        uint32                   `json:"id"`
	Published bool                     `json:"published"`
	Key       domain.Curve25519KeyPair `json:"key"`
}

// Account is the local identity plus its one-time keys.
type Account struct {
	IdentityKey domain.Curve25519KeyPair `json:"identity_key"`
	SigningKey  domain.Ed25519KeyPair    `json:"signing_key"`
	OneTimeKeys []OneTimeKey             `json:"one_time_keys"`
	NextKeyID   uint32                   `json:"next_key_id"`
}

// New generates a fresh account from random. If random is nil, crypto/rand
// is used.
func New(random io.Reader) (*Account, error) {
	identity, err := crypto.GenerateCurve25519(random)
	if err != nil {
		return nil, err
	}
	signing, err := crypto.GenerateEd25519(random)
	if err != nil {
		return nil, err
	}
	return &Account{IdentityKey: identity, SigningKey: signing, NextKeyID: 1}, nil
}

// GenerateOneTimeKeys adds n fresh one-time keys, evicting the oldest past
// the cap.
func (a *Account) GenerateOneTimeKeys(n int, random io.Reader) error {
	for i := 0; i < n; i++ {
		pair, err := crypto.GenerateCurve25519(random)
		if err != nil {
			return err
		}
		a.OneTimeKeys = append(a.OneTimeKeys, OneTimeKey{ID: a.NextKeyID, Key: pair})
		a.NextKeyID++
	}
	for len(a.OneTimeKeys) > MaxOneTimeKeys {
		memzero.Zero(a.OneTimeKeys[0].Key.Private[:])
		a.OneTimeKeys = a.OneTimeKeys[1:]
	}
	return nil
}

// LookupOneTimeKey resolves a one-time key pair by its public component.
func (a *Account) LookupOneTimeKey(pub domain.Curve25519Public) (domain.Curve25519KeyPair, bool) {
	for i := range a.OneTimeKeys {
		if a.OneTimeKeys[i].Key.Public.Equal(pub) {
			return a.OneTimeKeys[i].Key, true
		}
	}
	return domain.Curve25519KeyPair{}, false
}

// RemoveOneTimeKey discards the key with the given public component, as done
// once a session has been established from it.
func (a *Account) RemoveOneTimeKey(pub domain.Curve25519Public) bool {
	for i := range a.OneTimeKeys {
		if a.OneTimeKeys[i].Key.Public.Equal(pub) {
			memzero.Zero(a.OneTimeKeys[i].Key.Private[:])
			a.OneTimeKeys = append(a.OneTimeKeys[:i], a.OneTimeKeys[i+1:]...)
			return true
		}
	}
	return false
}

// MarkKeysAsPublished flags every held one-time key as published.
func (a *Account) MarkKeysAsPublished() {
	for i := range a.OneTimeKeys {
		a.OneTimeKeys[i].Published = true
	}
}

// UnpublishedOneTimeKeys returns the keys not yet uploaded anywhere.
func (a *Account) UnpublishedOneTimeKeys() []OneTimeKey {
	var out []OneTimeKey
	for _, k := range a.OneTimeKeys {
		if !k.Published {
			out = append(out, k)
		}
	}
	return out
}

// Sign signs message with the account's Ed25519 key.
func (a *Account) Sign(message []byte) []byte {
	return crypto.SignEd25519(a.SigningKey.Private, message)
}

// Clear wipes all private key material.
func (a *Account) Clear() {
	memzero.Zero(a.IdentityKey.Private[:])
	memzero.Zero(a.SigningKey.Private[:])
	for i := range a.OneTimeKeys {
		memzero.Zero(a.OneTimeKeys[i].Key.Private[:])
	}
	a.OneTimeKeys = nil
	a.NextKeyID = 0
}
