package ratchet

import (
	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/util/memzero"
)

// Seeds for the two HMAC derivations off a chain key.
var (
	messageKeySeed = []byte{0x01}
	chainKeySeed   = []byte{0x02}
)

// chainKey is one link of a symmetric ratchet chain.
type chainKey struct {
	Key   [32]byte
	Index uint32
}

// advance steps the chain: Key <- HMAC(Key, 0x02), Index+1.
func (c *chainKey) advance() {
	sum := crypto.HMACSHA256(c.Key[:], chainKeySeed)
	copy(c.Key[:], sum)
	memzero.Zero(sum)
	c.Index++
}

// messageKey derives the message key for the chain's current index without
// advancing it.
func (c *chainKey) messageKey() messageKey {
	var mk messageKey
	sum := crypto.HMACSHA256(c.Key[:], messageKeySeed)
	copy(mk.Key[:], sum)
	memzero.Zero(sum)
	mk.Index = c.Index
	return mk
}

func (c *chainKey) wipe() {
	memzero.Zero(c.Key[:])
	c.Index = 0
}

// messageKey encrypts exactly one message at a fixed chain index.
type messageKey struct {
	Key   [32]byte
	Index uint32
}

func (m *messageKey) wipe() {
	memzero.Zero(m.Key[:])
	m.Index = 0
}

// senderChain is the single active outbound chain, keyed to our current
// ratchet key pair.
type senderChain struct {
	RatchetKey domain.Curve25519KeyPair
	Chain      chainKey
	set        bool
}

func (s *senderChain) wipe() {
	memzero.ZeroAll(s.RatchetKey.Private[:], s.RatchetKey.Public[:])
	s.Chain.wipe()
	s.set = false
}

// receiverChain is an inbound chain keyed to one of the remote side's
// ratchet public keys.
type receiverChain struct {
	RatchetKey domain.Curve25519Public
	Chain      chainKey
}

func (r *receiverChain) wipe() {
	memzero.Zero(r.RatchetKey[:])
	r.Chain.wipe()
}

// skippedMessageKey stashes a derived key for a message that has not arrived
// yet. The ratchet public key is held by value so dropping the owning chain
// cannot invalidate the entry.
type skippedMessageKey struct {
	RatchetKey domain.Curve25519Public
	MessageKey messageKey
}

func (s *skippedMessageKey) wipe() {
	memzero.Zero(s.RatchetKey[:])
	s.MessageKey.wipe()
}
