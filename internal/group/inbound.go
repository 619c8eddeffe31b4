package group

import (
	"olmcore/internal/cipher"
	"olmcore/internal/codec"
	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/megolm"
	"olmcore/internal/pickle"
	"olmcore/internal/util/memzero"
)

// messageTrailerLength is the 8-byte MAC plus the sender's 64-byte Ed25519
// signature. The signature is carried on the wire but verified out of band;
// the inbound session authenticates via the MAC under megolm-derived keys.
const messageTrailerLength = cipher.MACLength + crypto.SignatureLength

// InboundGroupSession decrypts one sender's group messages.
type InboundGroupSession struct {
	initialRatchet megolm.Megolm
	latestRatchet  megolm.Megolm
}

// NewInbound builds a session from a shared session key: the base64 of the
// sender's 128-byte ratchet value at messageIndex. Indices below
// messageIndex are permanently out of reach.
func NewInbound(sessionKey []byte, messageIndex uint32) (*InboundGroupSession, error) {
	raw, err := crypto.Base64Decode(sessionKey)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)
	if len(raw) != megolm.RatchetLength {
		return nil, domain.ErrBadSessionKey
	}
	initial, err := megolm.New(raw, messageIndex)
	if err != nil {
		return nil, err
	}
	s := &InboundGroupSession{initialRatchet: *initial, latestRatchet: *initial}
	initial.Clear()
	return s, nil
}

// FirstKnownIndex returns the floor below which decryption is impossible.
func (s *InboundGroupSession) FirstKnownIndex() uint32 {
	return s.initialRatchet.Counter
}

// LatestKnownIndex returns the highest index seen so far.
func (s *InboundGroupSession) LatestKnownIndex() uint32 {
	return s.latestRatchet.Counter
}

// Decrypt authenticates and decrypts a base64 group message, returning the
// plaintext and its message index.
//
// Ratchet selection treats the 32-bit index distance as signed: indices at
// or beyond the latest ratchet advance it; indices between the initial and
// latest ratchets are served from a copy of the initial one, leaving the
// session state untouched; indices before the initial ratchet are
// unreachable.
func (s *InboundGroupSession) Decrypt(message []byte) ([]byte, uint32, error) {
	raw, err := crypto.Base64Decode(message)
	if err != nil {
		return nil, 0, err
	}
	msg := codec.DecodeGroupMessage(raw, messageTrailerLength)
	if len(raw) > 0 && msg.Version != codec.ProtocolVersion {
		return nil, 0, domain.ErrBadMessageVersion
	}
	if !msg.HasMessageIndex || len(msg.Ciphertext) == 0 {
		return nil, 0, domain.ErrBadMessageFormat
	}

	var ratchet megolm.Megolm
	commitLatest := false
	if msg.MessageIndex-s.latestRatchet.Counter < 1<<31 {
		// At or beyond the latest value we have: advance it, but commit
		// only after the MAC verifies.
		ratchet = s.latestRatchet
		commitLatest = true
	} else if msg.MessageIndex-s.initialRatchet.Counter >= 1<<31 {
		// The index predates our first known ratchet value.
		return nil, 0, domain.ErrUnknownMessageIndex
	} else {
		ratchet = s.initialRatchet
	}
	defer ratchet.Clear()

	ratchet.AdvanceTo(msg.MessageIndex)
	key := ratchet.Bytes()
	defer memzero.Zero(key)

	body := raw[:len(raw)-messageTrailerLength]
	mac := raw[len(raw)-messageTrailerLength : len(raw)-crypto.SignatureLength]
	ok, err := megolm.Cipher.VerifyMAC(key, body, mac)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, domain.ErrBadMessageMAC
	}
	plaintext, err := megolm.Cipher.Decrypt(key, msg.Ciphertext)
	if err != nil {
		return nil, 0, domain.ErrBadMessageMAC
	}
	if commitLatest {
		s.latestRatchet = ratchet
	}
	return plaintext, msg.MessageIndex, nil
}

// Clear wipes both ratchet values.
func (s *InboundGroupSession) Clear() {
	s.initialRatchet.Clear()
	s.latestRatchet.Clear()
}

// Pickle serializes the session and seals it under key.
func (s *InboundGroupSession) Pickle(key []byte) ([]byte, error) {
	raw := pickle.AppendUint32(nil, pickleVersion)
	raw = s.initialRatchet.Pickle(raw)
	raw = s.latestRatchet.Pickle(raw)

	out, err := pickle.Seal(key, raw)
	memzero.Zero(raw)
	return out, err
}

// UnpickleInbound opens a sealed pickle and rebuilds the session.
func UnpickleInbound(key, pickled []byte) (*InboundGroupSession, error) {
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
	s := &InboundGroupSession{}
	s.initialRatchet.Unpickle(d)
	s.latestRatchet.Unpickle(d)
	if d.Failed() || d.Remaining() != 0 {
		s.Clear()
		return nil, domain.ErrCorruptedPickle
	}
	return s, nil
}

const pickleVersion = 1
