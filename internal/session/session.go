package session

import (
	"crypto/subtle"
	"io"

	"olmcore/internal/account"
	"olmcore/internal/cipher"
	"olmcore/internal/codec"
	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/ratchet"
	"olmcore/internal/util/memzero"
)

const tripleDHLength = 3 * crypto.KeyLength

// Session is one end of a pairwise channel. The three establishment public
// keys are retained: they frame outbound pre-key messages, identify the
// session, and deduplicate concurrent inbound establishment attempts.
type Session struct {
	Ratchet ratchet.Ratchet

	aliceIdentityKey domain.Curve25519Public
	aliceBaseKey     domain.Curve25519Public
	bobOneTimeKey    domain.Curve25519Public

	receivedMessage bool
}

// NewOutbound establishes a session towards a peer from its identity key and
// one of its one-time keys. random supplies the base key pair and the
// initial ratchet key pair (64 bytes); nil means crypto/rand.
func NewOutbound(acct *account.Account, theirIdentityKey, theirOneTimeKey domain.Curve25519Public, random io.Reader) (*Session, error) {
	baseKey, err := crypto.GenerateCurve25519(random)
	if err != nil {
		return nil, err
	}
	ratchetKey, err := crypto.GenerateCurve25519(random)
	if err != nil {
		return nil, err
	}

	secret, err := tripleDH(
		acct.IdentityKey.Private, theirOneTimeKey,
		baseKey.Private, theirIdentityKey,
		baseKey.Private, theirOneTimeKey,
	)
	if err != nil {
		return nil, err
	}

	s := &Session{
		aliceIdentityKey: acct.IdentityKey.Public,
		aliceBaseKey:     baseKey.Public,
		bobOneTimeKey:    theirOneTimeKey,
	}
	err = s.Ratchet.InitializeAsAlice(secret, ratchetKey)
	memzero.ZeroAll(secret, baseKey.Private[:], ratchetKey.Private[:])
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewInbound establishes a session from a received pre-key message.
// theirIdentityKey may be nil when the caller has no out-of-band copy, in
// which case the key embedded in the message is trusted; when both are
// available they must match.
func NewInbound(acct *account.Account, theirIdentityKey *domain.Curve25519Public, preKeyMessage []byte) (*Session, error) {
	raw, err := crypto.Base64Decode(preKeyMessage)
	if err != nil {
		return nil, err
	}
	env := codec.DecodePreKeyMessage(raw)
	if !checkPreKeyFields(&env, theirIdentityKey != nil) {
		return nil, domain.ErrBadMessageFormat
	}
	if env.IdentityKey != nil && theirIdentityKey != nil {
		if subtle.ConstantTimeCompare(env.IdentityKey, theirIdentityKey.Slice()) != 1 {
			return nil, domain.ErrBadMessageKeyID
		}
	}

	s := &Session{}
	if theirIdentityKey != nil {
		s.aliceIdentityKey = *theirIdentityKey
	}
	if env.IdentityKey != nil {
		copy(s.aliceIdentityKey[:], env.IdentityKey)
	}
	copy(s.aliceBaseKey[:], env.BaseKey)
	copy(s.bobOneTimeKey[:], env.OneTimeKey)

	embedded := codec.DecodeMessage(env.Message, cipher.MACLength)
	if len(embedded.RatchetKey) != crypto.KeyLength {
		return nil, domain.ErrBadMessageFormat
	}
	var theirRatchetKey domain.Curve25519Public
	copy(theirRatchetKey[:], embedded.RatchetKey)

	ourOneTimeKey, ok := acct.LookupOneTimeKey(s.bobOneTimeKey)
	if !ok {
		return nil, domain.ErrBadMessageKeyID
	}

	secret, err := tripleDH(
		ourOneTimeKey.Private, s.aliceIdentityKey,
		acct.IdentityKey.Private, s.aliceBaseKey,
		ourOneTimeKey.Private, s.aliceBaseKey,
	)
	if err != nil {
		return nil, err
	}
	err = s.Ratchet.InitializeAsBob(secret, theirRatchetKey)
	memzero.Zero(secret)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// tripleDH concatenates the three X25519 shared secrets of the X3DH-style
// agreement.
func tripleDH(
	priv1 domain.Curve25519Private, pub1 domain.Curve25519Public,
	priv2 domain.Curve25519Private, pub2 domain.Curve25519Public,
	priv3 domain.Curve25519Private, pub3 domain.Curve25519Public,
) ([]byte, error) {
	secret := make([]byte, 0, tripleDHLength)
	for _, dh := range []struct {
		priv domain.Curve25519Private
		pub  domain.Curve25519Public
	}{{priv1, pub1}, {priv2, pub2}, {priv3, pub3}} {
		out, err := crypto.SharedSecret(dh.priv, dh.pub)
		if err != nil {
			memzero.Zero(secret)
			return nil, err
		}
		secret = append(secret, out...)
		memzero.Zero(out)
	}
	return secret, nil
}

func checkPreKeyFields(env *codec.PreKeyMessage, haveTheirIdentity bool) bool {
	ok := haveTheirIdentity || env.IdentityKey != nil
	if env.IdentityKey != nil {
		ok = ok && len(env.IdentityKey) == crypto.KeyLength
	}
	ok = ok && env.Message != nil
	ok = ok && len(env.BaseKey) == crypto.KeyLength
	ok = ok && len(env.OneTimeKey) == crypto.KeyLength
	return ok
}

// ID returns SHA-256 over the three establishment public keys. It is stable
// for the session's lifetime and equal on both ends.
func (s *Session) ID() [32]byte {
	buf := make([]byte, 0, tripleDHLength)
	buf = append(buf, s.aliceIdentityKey[:]...)
	buf = append(buf, s.aliceBaseKey[:]...)
	buf = append(buf, s.bobOneTimeKey[:]...)
	return crypto.SHA256(buf)
}

// MatchesInbound reports whether a pre-key message targets this session:
// the embedded base, one-time and (when present) identity keys must all
// equal the stored establishment keys. Comparison is constant time.
func (s *Session) MatchesInbound(theirIdentityKey *domain.Curve25519Public, preKeyMessage []byte) bool {
	raw, err := crypto.Base64Decode(preKeyMessage)
	if err != nil {
		return false
	}
	env := codec.DecodePreKeyMessage(raw)
	if !checkPreKeyFields(&env, theirIdentityKey != nil) {
		return false
	}

	same := 1
	if env.IdentityKey != nil {
		same &= subtle.ConstantTimeCompare(env.IdentityKey, s.aliceIdentityKey[:])
	}
	if theirIdentityKey != nil {
		same &= subtle.ConstantTimeCompare(theirIdentityKey.Slice(), s.aliceIdentityKey[:])
	}
	same &= subtle.ConstantTimeCompare(env.BaseKey, s.aliceBaseKey[:])
	same &= subtle.ConstantTimeCompare(env.OneTimeKey, s.bobOneTimeKey[:])
	return same == 1
}

// UsedOneTimeKey returns the one-time key public the session was
// established from, so callers can discard it from their account.
func (s *Session) UsedOneTimeKey() domain.Curve25519Public {
	return s.bobOneTimeKey
}

// EncryptMessageType reports how the next Encrypt will frame its output:
// pre-key until the first inbound message has been decrypted, normal after.
func (s *Session) EncryptMessageType() domain.MessageType {
	if s.receivedMessage {
		return domain.MessageTypeNormal
	}
	return domain.MessageTypePreKey
}

// HasReceivedMessage reports whether any inbound message has been decrypted.
func (s *Session) HasReceivedMessage() bool { return s.receivedMessage }

// Encrypt produces the next outbound message as base64, framed according to
// EncryptMessageType. random feeds any DH ratchet step; nil means
// crypto/rand.
func (s *Session) Encrypt(plaintext []byte, random io.Reader) (domain.MessageType, []byte, error) {
	messageType := s.EncryptMessageType()
	body, err := s.Ratchet.Encrypt(plaintext, random)
	if err != nil {
		return messageType, nil, err
	}
	if messageType == domain.MessageTypePreKey {
		env := codec.PreKeyMessage{
			Version:     codec.ProtocolVersion,
			OneTimeKey:  s.bobOneTimeKey.Slice(),
			BaseKey:     s.aliceBaseKey.Slice(),
			IdentityKey: s.aliceIdentityKey.Slice(),
			Message:     body,
		}
		body = env.Encode()
	}
	return messageType, crypto.Base64Encode(body), nil
}

// Decrypt authenticates and decrypts a base64 message of the given type. On
// the first success the session switches permanently to normal framing for
// egress.
func (s *Session) Decrypt(messageType domain.MessageType, message []byte) ([]byte, error) {
	raw, err := crypto.Base64Decode(message)
	if err != nil {
		return nil, err
	}
	body := raw
	if messageType == domain.MessageTypePreKey {
		env := codec.DecodePreKeyMessage(raw)
		if env.Message == nil {
			return nil, domain.ErrBadMessageFormat
		}
		body = env.Message
	}
	plaintext, err := s.Ratchet.Decrypt(body)
	if err != nil {
		return nil, err
	}
	s.receivedMessage = true
	return plaintext, nil
}

// Clear wipes the ratchet and establishment state.
func (s *Session) Clear() {
	s.Ratchet.Clear()
	memzero.ZeroAll(s.aliceIdentityKey[:], s.aliceBaseKey[:], s.bobOneTimeKey[:])
	s.receivedMessage = false
}
