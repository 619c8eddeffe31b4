package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 16383, 16384, 1<<24 - 1, 1<<32 - 1} {
		buf := AppendVarint(nil, v)
		require.Len(t, buf, VarintLength(v))

		got, n, ok := DecodeVarint(buf)
		require.True(t, ok)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestVarintTruncated(t *testing.T) {
	buf := AppendVarint(nil, 1<<28)
	_, _, ok := DecodeVarint(buf[:len(buf)-1])
	require.False(t, ok)

	_, _, ok = DecodeVarint(nil)
	require.False(t, ok)
}

func TestVarintOverflow(t *testing.T) {
	// Six continuation groups exceed 32 bits.
	_, _, ok := DecodeVarint([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01})
	require.False(t, ok)
}

func TestMessageRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	msg := Message{
		Version:    ProtocolVersion,
		RatchetKey: key,
		HasCounter: true,
		Counter:    5,
		Ciphertext: []byte("ciphertext bytes"),
	}
	encoded := msg.Encode()
	require.Len(t, encoded, msg.EncodedLength())
	require.Equal(t, byte(ProtocolVersion), encoded[0])

	mac := []byte("12345678")
	decoded := DecodeMessage(append(encoded, mac...), len(mac))
	require.Equal(t, msg.Version, decoded.Version)
	require.Equal(t, msg.RatchetKey, decoded.RatchetKey)
	require.True(t, decoded.HasCounter)
	require.Equal(t, msg.Counter, decoded.Counter)
	require.Equal(t, msg.Ciphertext, decoded.Ciphertext)
}

func TestMessageDecodeTotalOnTruncation(t *testing.T) {
	msg := Message{Version: ProtocolVersion, RatchetKey: make([]byte, 32), Counter: 1, Ciphertext: []byte("x")}
	encoded := append(msg.Encode(), make([]byte, 8)...)

	for cut := 0; cut < len(encoded); cut++ {
		decoded := DecodeMessage(encoded[:cut], 8)
		// Never panics; fields are either fully present or unset.
		if decoded.RatchetKey != nil {
			require.Len(t, decoded.RatchetKey, 32)
		}
	}
}

func TestMessageDecodeSkipsUnknownTags(t *testing.T) {
	// Hand-built body: version, unknown varint field 3, then ciphertext.
	body := []byte{ProtocolVersion}
	body = append(body, 0x18) // field 3, varint
	body = AppendVarint(body, 99)
	body = appendBytesField(body, tagMessageCiphertext, []byte("ct"))
	body = append(body, make([]byte, 8)...)

	decoded := DecodeMessage(body, 8)
	require.Equal(t, []byte("ct"), decoded.Ciphertext)
	require.Nil(t, decoded.RatchetKey)
}

func TestPreKeyMessageRoundTrip(t *testing.T) {
	env := PreKeyMessage{
		Version:     ProtocolVersion,
		OneTimeKey:  make([]byte, 32),
		BaseKey:     make([]byte, 32),
		IdentityKey: make([]byte, 32),
		Message:     []byte("embedded"),
	}
	env.BaseKey[0] = 1
	env.IdentityKey[0] = 2

	decoded := DecodePreKeyMessage(env.Encode())
	require.Equal(t, env.OneTimeKey, decoded.OneTimeKey)
	require.Equal(t, env.BaseKey, decoded.BaseKey)
	require.Equal(t, env.IdentityKey, decoded.IdentityKey)
	require.Equal(t, env.Message, decoded.Message)
}

func TestGroupMessageRoundTrip(t *testing.T) {
	msg := GroupMessage{
		Version:      ProtocolVersion,
		MessageIndex: 301,
		Ciphertext:   []byte("group ciphertext"),
	}
	trailer := make([]byte, 72)
	decoded := DecodeGroupMessage(append(msg.Encode(), trailer...), len(trailer))
	require.True(t, decoded.HasMessageIndex)
	require.Equal(t, msg.MessageIndex, decoded.MessageIndex)
	require.Equal(t, msg.Ciphertext, decoded.Ciphertext)
}

func TestGroupMessageTooShort(t *testing.T) {
	decoded := DecodeGroupMessage([]byte{ProtocolVersion}, 72)
	require.False(t, decoded.HasMessageIndex)
	require.Nil(t, decoded.Ciphertext)
}
