package group

import (
	"crypto/rand"
	"io"

	"olmcore/internal/codec"
	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/megolm"
	"olmcore/internal/pickle"
	"olmcore/internal/util/memzero"
)

// OutboundGroupSession is the sender side: a megolm ratchet advanced once
// per message and an Ed25519 key that signs every frame.
type OutboundGroupSession struct {
	ratchet    megolm.Megolm
	signingKey domain.Ed25519KeyPair
}

// NewOutbound creates a sender session. random supplies the 128-byte
// initial ratchet value and the signing key seed; nil means crypto/rand.
func NewOutbound(random io.Reader) (*OutboundGroupSession, error) {
	if random == nil {
		random = rand.Reader
	}
	seed := make([]byte, megolm.RatchetLength)
	if _, err := io.ReadFull(random, seed); err != nil {
		return nil, domain.ErrNotEnoughRandom
	}
	pair, err := crypto.GenerateEd25519(random)
	if err != nil {
		return nil, err
	}
	ratchet, err := megolm.New(seed, 0)
	memzero.Zero(seed)
	if err != nil {
		return nil, err
	}
	s := &OutboundGroupSession{ratchet: *ratchet, signingKey: pair}
	ratchet.Clear()
	return s, nil
}

// MessageIndex returns the index the next Encrypt will use.
func (s *OutboundGroupSession) MessageIndex() uint32 {
	return s.ratchet.Counter
}

// SigningPublicKey returns the key receivers can use to verify the trailing
// signature; it travels to them out of band.
func (s *OutboundGroupSession) SigningPublicKey() domain.Ed25519Public {
	return s.signingKey.Public
}

// SessionKey exports the current ratchet value as base64. An inbound
// session built from it (at MessageIndex) decrypts this message and all
// later ones, but nothing earlier.
func (s *OutboundGroupSession) SessionKey() []byte {
	key := s.ratchet.Bytes()
	out := crypto.Base64Encode(key)
	memzero.Zero(key)
	return out
}

// Encrypt produces the next base64 group message: version, index,
// ciphertext, truncated MAC, Ed25519 signature. The ratchet advances after
// each message, so each index's key is derivable only forwards.
func (s *OutboundGroupSession) Encrypt(plaintext []byte) ([]byte, error) {
	key := s.ratchet.Bytes()
	defer memzero.Zero(key)

	ciphertext, err := megolm.Cipher.Encrypt(key, plaintext)
	if err != nil {
		return nil, err
	}
	msg := codec.GroupMessage{
		Version:      codec.ProtocolVersion,
		MessageIndex: s.ratchet.Counter,
		Ciphertext:   ciphertext,
	}
	body := msg.Encode()
	mac, err := megolm.Cipher.MAC(key, body)
	if err != nil {
		return nil, err
	}
	signed := append(body, mac...)
	signature := crypto.SignEd25519(s.signingKey.Private, signed)

	s.ratchet.Advance()
	return crypto.Base64Encode(append(signed, signature...)), nil
}

// Clear wipes the ratchet and signing key.
func (s *OutboundGroupSession) Clear() {
	s.ratchet.Clear()
	memzero.Zero(s.signingKey.Private[:])
}

// Pickle serializes the session and seals it under key.
func (s *OutboundGroupSession) Pickle(key []byte) ([]byte, error) {
	raw := pickle.AppendUint32(nil, pickleVersion)
	raw = s.ratchet.Pickle(raw)
	raw = pickle.AppendBytes(raw, s.signingKey.Public[:])
	raw = pickle.AppendBytes(raw, s.signingKey.Private[:])

	out, err := pickle.Seal(key, raw)
	memzero.Zero(raw)
	return out, err
}

// UnpickleOutbound opens a sealed pickle and rebuilds the session.
func UnpickleOutbound(key, pickled []byte) (*OutboundGroupSession, error) {
	raw, err := pickle.Open(key, pickled)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)

	d := pickle.NewDecoder(raw)
	version := d.Uint32()
	if d.Failed() {
		return nil, domain.ErrCorruptedPickle
	}
	if version != pickleVersion {
		return nil, domain.ErrUnknownPickleVersion
	}
	s := &OutboundGroupSession{}
	s.ratchet.Unpickle(d)
	d.Read(s.signingKey.Public[:])
	d.Read(s.signingKey.Private[:])
	if d.Failed() || d.Remaining() != 0 {
		s.Clear()
		return nil, domain.ErrCorruptedPickle
	}
	return s, nil
}
