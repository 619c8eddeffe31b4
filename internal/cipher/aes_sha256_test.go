package cipher

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"olmcore/internal/domain"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := NewAESSHA256("OLM_KEYS")
	plaintext := []byte("it's a secret to everybody")

	ct, err := c.Encrypt(testKey(), plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ct)
	require.Zero(t, len(ct)%16, "ciphertext must be block aligned")

	got, err := c.Decrypt(testKey(), ct)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestEncryptDeterministic(t *testing.T) {
	// The IV is derived from the key, so the transform is deterministic.
	c := NewAESSHA256("OLM_KEYS")
	a, err := c.Encrypt(testKey(), []byte("hello"))
	require.NoError(t, err)
	b, err := c.Encrypt(testKey(), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestInfoSeparatesKeySchedules(t *testing.T) {
	olm := NewAESSHA256("OLM_KEYS")
	megolm := NewAESSHA256("MEGOLM_KEYS")

	a, err := olm.Encrypt(testKey(), []byte("hello"))
	require.NoError(t, err)
	b, err := megolm.Encrypt(testKey(), []byte("hello"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestMACVerify(t *testing.T) {
	c := NewAESSHA256("OLM_KEYS")
	message := []byte("authenticated framing bytes")

	mac, err := c.MAC(testKey(), message)
	require.NoError(t, err)
	require.Len(t, mac, MACLength)

	ok, err := c.VerifyMAC(testKey(), message, mac)
	require.NoError(t, err)
	require.True(t, ok)

	mac[0] ^= 0x01
	ok, err = c.VerifyMAC(testKey(), message, mac)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = c.VerifyMAC(testKey(), message, mac[:4])
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDecryptBadPadding(t *testing.T) {
	c := NewAESSHA256("OLM_KEYS")
	// Not a multiple of the block size.
	_, err := c.Decrypt(testKey(), []byte("short"))
	require.ErrorIs(t, err, domain.ErrBadMessageFormat)
}
