package session_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"olmcore/internal/account"
	"olmcore/internal/domain"
	"olmcore/internal/session"
)

// seqReader hands out a deterministic, non-repeating byte stream so key
// pairs drawn from the same reader differ.
type seqReader struct{ next byte }

func (r *seqReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.next
		r.next++
	}
	return len(p), nil
}

func seqRand(seed byte) io.Reader { return &seqReader{next: seed} }

func newAccounts(t *testing.T) (aliceAcct, bobAcct *account.Account) {
	t.Helper()
	var err error
	aliceAcct, err = account.New(seqRand(10))
	require.NoError(t, err)
	bobAcct, err = account.New(seqRand(60))
	require.NoError(t, err)
	require.NoError(t, bobAcct.GenerateOneTimeKeys(3, seqRand(110)))
	return aliceAcct, bobAcct
}

// establish runs a full handshake: Alice encrypts a first message, Bob
// builds the inbound session from it and decrypts it.
func establish(t *testing.T) (alice, bob *session.Session) {
	t.Helper()
	aliceAcct, bobAcct := newAccounts(t)

	alice, err := session.NewOutbound(
		aliceAcct, bobAcct.IdentityKey.Public, bobAcct.OneTimeKeys[0].Key.Public, seqRand(160))
	require.NoError(t, err)

	messageType, msg, err := alice.Encrypt([]byte("Hello"), nil)
	require.NoError(t, err)
	require.Equal(t, domain.MessageTypePreKey, messageType)

	bob, err = session.NewInbound(bobAcct, &aliceAcct.IdentityKey.Public, msg)
	require.NoError(t, err)

	got, err := bob.Decrypt(domain.MessageTypePreKey, msg)
	require.NoError(t, err)
	require.Equal(t, []byte("Hello"), got)
	return alice, bob
}

func TestEstablishment(t *testing.T) {
	aliceAcct, bobAcct := newAccounts(t)

	// The spec fixture: 64 bytes of 0x01 drive the outbound session.
	alice, err := session.NewOutbound(
		aliceAcct, bobAcct.IdentityKey.Public, bobAcct.OneTimeKeys[0].Key.Public,
		bytes.NewReader(bytes.Repeat([]byte{0x01}, 64)))
	require.NoError(t, err)

	_, msg, err := alice.Encrypt([]byte("Hello"), nil)
	require.NoError(t, err)

	bob, err := session.NewInbound(bobAcct, &aliceAcct.IdentityKey.Public, msg)
	require.NoError(t, err)

	require.Equal(t, alice.ID(), bob.ID())
	require.True(t, bob.MatchesInbound(&aliceAcct.IdentityKey.Public, msg))
	require.True(t, bob.MatchesInbound(nil, msg))
}

func TestRoundTripBothDirections(t *testing.T) {
	alice, bob := establish(t)

	messageType, reply, err := bob.Encrypt([]byte("Hi Alice"), seqRand(200))
	require.NoError(t, err)
	require.Equal(t, domain.MessageTypeNormal, messageType)

	got, err := alice.Decrypt(domain.MessageTypeNormal, reply)
	require.NoError(t, err)
	require.Equal(t, []byte("Hi Alice"), got)

	messageType, msg, err := alice.Encrypt([]byte("and back"), seqRand(210))
	require.NoError(t, err)
	require.Equal(t, domain.MessageTypeNormal, messageType)
	got, err = bob.Decrypt(domain.MessageTypeNormal, msg)
	require.NoError(t, err)
	require.Equal(t, []byte("and back"), got)
}

func TestPreKeyMessagesDecryptOutOfOrder(t *testing.T) {
	aliceAcct, bobAcct := newAccounts(t)
	alice, err := session.NewOutbound(
		aliceAcct, bobAcct.IdentityKey.Public, bobAcct.OneTimeKeys[0].Key.Public, seqRand(160))
	require.NoError(t, err)

	plaintexts := [][]byte{[]byte("zero"), []byte("one"), []byte("two")}
	var msgs [][]byte
	for _, p := range plaintexts {
		messageType, m, err := alice.Encrypt(p, nil)
		require.NoError(t, err)
		// No reply has arrived, so every message stays a pre-key message.
		require.Equal(t, domain.MessageTypePreKey, messageType)
		msgs = append(msgs, m)
	}

	bob, err := session.NewInbound(bobAcct, &aliceAcct.IdentityKey.Public, msgs[2])
	require.NoError(t, err)

	for _, i := range []int{2, 0, 1} {
		got, err := bob.Decrypt(domain.MessageTypePreKey, msgs[i])
		require.NoError(t, err)
		require.Equal(t, plaintexts[i], got)
	}
	require.Zero(t, bob.Ratchet.SkippedMessageKeyCount())
}

func TestMessageTypeSwitchesAfterFirstReceipt(t *testing.T) {
	alice, bob := establish(t)
	require.Equal(t, domain.MessageTypePreKey, alice.EncryptMessageType())

	_, reply, err := bob.Encrypt([]byte("reply"), seqRand(200))
	require.NoError(t, err)
	_, err = alice.Decrypt(domain.MessageTypeNormal, reply)
	require.NoError(t, err)

	require.Equal(t, domain.MessageTypeNormal, alice.EncryptMessageType())
	require.True(t, alice.HasReceivedMessage())
}

func TestMatchesInboundRejectsOtherSessions(t *testing.T) {
	aliceAcct, bobAcct := newAccounts(t)
	alice, err := session.NewOutbound(
		aliceAcct, bobAcct.IdentityKey.Public, bobAcct.OneTimeKeys[0].Key.Public, seqRand(160))
	require.NoError(t, err)
	_, msg, err := alice.Encrypt([]byte("Hello"), nil)
	require.NoError(t, err)

	bob, err := session.NewInbound(bobAcct, &aliceAcct.IdentityKey.Public, msg)
	require.NoError(t, err)

	// A second outbound session towards a different one-time key does not
	// match the established inbound session.
	other, err := session.NewOutbound(
		aliceAcct, bobAcct.IdentityKey.Public, bobAcct.OneTimeKeys[1].Key.Public, seqRand(220))
	require.NoError(t, err)
	_, otherMsg, err := other.Encrypt([]byte("Hello again"), nil)
	require.NoError(t, err)

	require.True(t, bob.MatchesInbound(&aliceAcct.IdentityKey.Public, msg))
	require.False(t, bob.MatchesInbound(&aliceAcct.IdentityKey.Public, otherMsg))
}

func TestInboundIdentityMismatch(t *testing.T) {
	aliceAcct, bobAcct := newAccounts(t)
	alice, err := session.NewOutbound(
		aliceAcct, bobAcct.IdentityKey.Public, bobAcct.OneTimeKeys[0].Key.Public, seqRand(160))
	require.NoError(t, err)
	_, msg, err := alice.Encrypt([]byte("Hello"), nil)
	require.NoError(t, err)

	// Cross-check against the wrong identity key.
	wrong := bobAcct.IdentityKey.Public
	_, err = session.NewInbound(bobAcct, &wrong, msg)
	require.ErrorIs(t, err, domain.ErrBadMessageKeyID)
}

func TestInboundUnknownOneTimeKey(t *testing.T) {
	aliceAcct, bobAcct := newAccounts(t)

	// Target a one-time key Bob's account does not hold.
	stranger, err := account.New(seqRand(230))
	require.NoError(t, err)
	require.NoError(t, stranger.GenerateOneTimeKeys(1, seqRand(240)))

	alice, err := session.NewOutbound(
		aliceAcct, bobAcct.IdentityKey.Public, stranger.OneTimeKeys[0].Key.Public, seqRand(160))
	require.NoError(t, err)
	_, msg, err := alice.Encrypt([]byte("Hello"), nil)
	require.NoError(t, err)

	_, err = session.NewInbound(bobAcct, &aliceAcct.IdentityKey.Public, msg)
	require.ErrorIs(t, err, domain.ErrBadMessageKeyID)
}

func TestDecryptInvalidBase64(t *testing.T) {
	_, bob := establish(t)
	_, err := bob.Decrypt(domain.MessageTypeNormal, []byte("!not base64!"))
	require.ErrorIs(t, err, domain.ErrInvalidBase64)
}

func TestPickleRoundTrip(t *testing.T) {
	alice, bob := establish(t)
	key := []byte("password")

	pickled, err := bob.Pickle(key)
	require.NoError(t, err)

	restored, err := session.Unpickle(key, pickled)
	require.NoError(t, err)
	require.Equal(t, bob.ID(), restored.ID())
	require.Equal(t, bob.HasReceivedMessage(), restored.HasReceivedMessage())

	// Pickling is deterministic, so observable-state equality shows up as
	// byte equality.
	repickled, err := restored.Pickle(key)
	require.NoError(t, err)
	require.Equal(t, pickled, repickled)

	// The restored session carries on where the original stopped.
	_, msg, err := alice.Encrypt([]byte("after restore"), nil)
	require.NoError(t, err)
	got, err := restored.Decrypt(domain.MessageTypePreKey, msg)
	require.NoError(t, err)
	require.Equal(t, []byte("after restore"), got)
}

func TestPickleWrongKey(t *testing.T) {
	_, bob := establish(t)
	pickled, err := bob.Pickle([]byte("password"))
	require.NoError(t, err)

	_, err = session.Unpickle([]byte("hunter2"), pickled)
	require.ErrorIs(t, err, domain.ErrBadMessageMAC)
}

func TestPickleTamperDetected(t *testing.T) {
	_, bob := establish(t)
	key := []byte("password")
	pickled, err := bob.Pickle(key)
	require.NoError(t, err)

	mutated := append([]byte(nil), pickled...)
	mid := len(mutated) / 2
	if mutated[mid] == 'A' {
		mutated[mid] = 'B'
	} else {
		mutated[mid] = 'A'
	}
	_, err = session.Unpickle(key, mutated)
	require.Error(t, err)
}
