package ratchet_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/pickle"
	"olmcore/internal/ratchet"
)

// fixedRand returns a deterministic entropy source.
func fixedRand(seed byte) io.Reader {
	return bytes.NewReader(bytes.Repeat([]byte{seed}, 1024))
}

// newPair builds an initialised Alice/Bob ratchet pair sharing a secret.
func newPair(t *testing.T) (alice, bob *ratchet.Ratchet) {
	t.Helper()
	secret := bytes.Repeat([]byte{0x77}, 96)
	alicePair, err := crypto.GenerateCurve25519(fixedRand(1))
	require.NoError(t, err)

	alice, bob = &ratchet.Ratchet{}, &ratchet.Ratchet{}
	require.NoError(t, alice.InitializeAsAlice(secret, alicePair))
	require.NoError(t, bob.InitializeAsBob(secret, alicePair.Public))
	return alice, bob
}

func TestRoundTrip(t *testing.T) {
	alice, bob := newPair(t)

	msg, err := alice.Encrypt([]byte("Hello, Bob!"), nil)
	require.NoError(t, err)
	got, err := bob.Decrypt(msg)
	require.NoError(t, err)
	require.Equal(t, []byte("Hello, Bob!"), got)

	// Bob's first reply forces a DH ratchet step.
	reply, err := bob.Encrypt([]byte("Hello, Alice!"), fixedRand(2))
	require.NoError(t, err)
	got, err = alice.Decrypt(reply)
	require.NoError(t, err)
	require.Equal(t, []byte("Hello, Alice!"), got)
}

func TestEncryptDeterministic(t *testing.T) {
	alice1, bob1 := newPair(t)
	alice2, _ := newPair(t)

	a, err := alice1.Encrypt([]byte("same"), nil)
	require.NoError(t, err)
	b, err := alice2.Encrypt([]byte("same"), nil)
	require.NoError(t, err)
	require.Equal(t, a, b)

	// Same state and same entropy on the responding side too.
	_, err = bob1.Decrypt(a)
	require.NoError(t, err)
	r1, err := bob1.Encrypt([]byte("reply"), fixedRand(9))
	require.NoError(t, err)

	_, bob2 := newPair(t)
	_, err = bob2.Decrypt(b)
	require.NoError(t, err)
	r2, err := bob2.Encrypt([]byte("reply"), fixedRand(9))
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}

func TestOutOfOrderWithinChain(t *testing.T) {
	alice, bob := newPair(t)

	plaintexts := [][]byte{[]byte("zero"), []byte("one"), []byte("two")}
	var msgs [][]byte
	for _, p := range plaintexts {
		m, err := alice.Encrypt(p, nil)
		require.NoError(t, err)
		msgs = append(msgs, m)
	}

	got, err := bob.Decrypt(msgs[2])
	require.NoError(t, err)
	require.Equal(t, plaintexts[2], got)
	require.Equal(t, 2, bob.SkippedMessageKeyCount())

	got, err = bob.Decrypt(msgs[0])
	require.NoError(t, err)
	require.Equal(t, plaintexts[0], got)

	got, err = bob.Decrypt(msgs[1])
	require.NoError(t, err)
	require.Equal(t, plaintexts[1], got)
	require.Zero(t, bob.SkippedMessageKeyCount())
}

func TestReplayRejected(t *testing.T) {
	alice, bob := newPair(t)

	m0, err := alice.Encrypt([]byte("zero"), nil)
	require.NoError(t, err)
	m1, err := alice.Encrypt([]byte("one"), nil)
	require.NoError(t, err)

	// Chain replay: the chain has advanced past the counter and no
	// skipped key exists.
	_, err = bob.Decrypt(m1)
	require.NoError(t, err)
	_, err = bob.Decrypt(m1)
	require.ErrorIs(t, err, domain.ErrUnknownMessageIndex)

	// Skipped-key replay: the entry is consumed by the first decryption.
	_, err = bob.Decrypt(m0)
	require.NoError(t, err)
	_, err = bob.Decrypt(m0)
	require.ErrorIs(t, err, domain.ErrUnknownMessageIndex)
}

func TestTamperedMessageLeavesStateIntact(t *testing.T) {
	alice, bob := newPair(t)

	m0, err := alice.Encrypt([]byte("zero"), nil)
	require.NoError(t, err)

	bad := append([]byte(nil), m0...)
	bad[len(bad)-1] ^= 0x01
	_, err = bob.Decrypt(bad)
	require.ErrorIs(t, err, domain.ErrBadMessageMAC)
	require.Zero(t, bob.SkippedMessageKeyCount())

	// The untampered message still decrypts.
	got, err := bob.Decrypt(m0)
	require.NoError(t, err)
	require.Equal(t, []byte("zero"), got)
}

func TestBadVersionAndFormat(t *testing.T) {
	_, bob := newPair(t)

	_, err := bob.Decrypt([]byte{0x02, 0x0A, 0x01, 0x00})
	require.ErrorIs(t, err, domain.ErrBadMessageVersion)

	_, err = bob.Decrypt([]byte{0x03, 0xFF, 0xFF})
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)
}

func TestInterleavedConversation(t *testing.T) {
	alice, bob := newPair(t)
	seed := byte(10)

	send := func(from, to *ratchet.Ratchet, text string) {
		t.Helper()
		seed++
		m, err := from.Encrypt([]byte(text), fixedRand(seed))
		require.NoError(t, err)
		got, err := to.Decrypt(m)
		require.NoError(t, err)
		require.Equal(t, []byte(text), got)
	}

	send(alice, bob, "a1")
	send(bob, alice, "b1")
	send(alice, bob, "a2")
	send(alice, bob, "a3")
	send(bob, alice, "b2")
	send(alice, bob, "a4")
	send(bob, alice, "b3")
	send(bob, alice, "b4")
	send(alice, bob, "a5")
}

func TestOutOfOrderAcrossRatchetStep(t *testing.T) {
	alice, bob := newPair(t)

	// Two messages on Alice's first chain; Bob only reads the first.
	x0, err := alice.Encrypt([]byte("x0"), nil)
	require.NoError(t, err)
	x1, err := alice.Encrypt([]byte("x1"), nil)
	require.NoError(t, err)
	_, err = bob.Decrypt(x0)
	require.NoError(t, err)

	// A full round trip moves both sides to fresh chains.
	r0, err := bob.Encrypt([]byte("r0"), fixedRand(3))
	require.NoError(t, err)
	_, err = alice.Decrypt(r0)
	require.NoError(t, err)
	y0, err := alice.Encrypt([]byte("y0"), fixedRand(4))
	require.NoError(t, err)
	got, err := bob.Decrypt(y0)
	require.NoError(t, err)
	require.Equal(t, []byte("y0"), got)
	require.Equal(t, 2, bob.ReceiverChainCount())

	// The straggler from the previous chain is still decryptable.
	got, err = bob.Decrypt(x1)
	require.NoError(t, err)
	require.Equal(t, []byte("x1"), got)
}

func TestSkippedKeyEviction(t *testing.T) {
	alice, bob := newPair(t)

	var msgs [][]byte
	for i := 0; i < 45; i++ {
		m, err := alice.Encrypt([]byte{byte(i)}, nil)
		require.NoError(t, err)
		msgs = append(msgs, m)
	}

	// Jumping straight to the last message stashes 44 keys; the oldest
	// four fall off the cap.
	_, err := bob.Decrypt(msgs[44])
	require.NoError(t, err)
	require.Equal(t, ratchet.MaxSkippedMessageKeys, bob.SkippedMessageKeyCount())

	_, err = bob.Decrypt(msgs[3])
	require.ErrorIs(t, err, domain.ErrUnknownMessageIndex)

	got, err := bob.Decrypt(msgs[4])
	require.NoError(t, err)
	require.Equal(t, []byte{4}, got)
}

func TestReceiverChainEviction(t *testing.T) {
	alice, bob := newPair(t)

	// Each full round trip retires one of Bob's receiver chains.
	seed := byte(20)
	for i := 0; i < ratchet.MaxReceiverChains+2; i++ {
		seed++
		m, err := alice.Encrypt([]byte("ping"), fixedRand(seed))
		require.NoError(t, err)
		_, err = bob.Decrypt(m)
		require.NoError(t, err)

		seed++
		r, err := bob.Encrypt([]byte("pong"), fixedRand(seed))
		require.NoError(t, err)
		_, err = alice.Decrypt(r)
		require.NoError(t, err)
	}
	require.Equal(t, ratchet.MaxReceiverChains, bob.ReceiverChainCount())
}

func TestPickleRoundTrip(t *testing.T) {
	alice, bob := newPair(t)

	// Put some interesting state into Bob: a skipped key and an advanced
	// receiver chain.
	m0, err := alice.Encrypt([]byte("m0"), nil)
	require.NoError(t, err)
	m1, err := alice.Encrypt([]byte("m1"), nil)
	require.NoError(t, err)
	_, err = bob.Decrypt(m1)
	require.NoError(t, err)

	raw := bob.Pickle(nil)

	restored := &ratchet.Ratchet{}
	d := pickle.NewDecoder(raw)
	require.NoError(t, restored.Unpickle(d))
	require.Zero(t, d.Remaining())
	require.Equal(t, raw, restored.Pickle(nil))

	// The restored ratchet still serves the skipped message.
	got, err := restored.Decrypt(m0)
	require.NoError(t, err)
	require.Equal(t, []byte("m0"), got)
}
