package codec

// Protocol version carried as the first byte of every framing.
const ProtocolVersion = 0x03

// Normal message field tags: (field_number << 3) | wire_type.
const (
	tagMessageRatchetKey = 0x0A // field 1, length-delimited
	tagMessageCounter    = 0x10 // field 2, varint
	tagMessageCiphertext = 0x22 // field 4, length-delimited
)

// Message is the decoded form of a normal (post-establishment) message. The
// trailing MAC is not part of the TLV body and is handled by the caller.
type Message struct {
	Version    byte
	RatchetKey []byte
	HasCounter bool
	Counter    uint32
	Ciphertext []byte
}

// Encode lays out the message body: version byte, ratchet key, counter,
// ciphertext. The caller appends the MAC over these bytes.
func (m *Message) Encode() []byte {
	out := make([]byte, 0, m.EncodedLength())
	out = append(out, m.Version)
	out = appendBytesField(out, tagMessageRatchetKey, m.RatchetKey)
	out = append(out, tagMessageCounter)
	out = AppendVarint(out, m.Counter)
	return appendBytesField(out, tagMessageCiphertext, m.Ciphertext)
}

// EncodedLength returns the body size Encode will produce, excluding the MAC.
func (m *Message) EncodedLength() int {
	length := 1
	length += 1 + VarintLength(uint32(len(m.RatchetKey))) + len(m.RatchetKey)
	length += 1 + VarintLength(m.Counter)
	length += 1 + VarintLength(uint32(len(m.Ciphertext))) + len(m.Ciphertext)
	return length
}

// DecodeMessage parses input, which carries a macLength-byte trailer after
// the TLV body. Fields absent or malformed stay unset.
func DecodeMessage(input []byte, macLength int) Message {
	var m Message
	if len(input) < 1 {
		return m
	}
	m.Version = input[0]
	if len(input) < 1+macLength {
		return m
	}
	body := input[1 : len(input)-macLength]
	for len(body) > 0 {
		tag := uint32(body[0])
		body = body[1:]
		switch tag {
		case tagMessageRatchetKey:
			payload, n, ok := decodeBytesField(body)
			if !ok {
				return m
			}
			m.RatchetKey = payload
			body = body[n:]
		case tagMessageCounter:
			v, n, ok := DecodeVarint(body)
			if !ok {
				return m
			}
			m.Counter = v
			m.HasCounter = true
			body = body[n:]
		case tagMessageCiphertext:
			payload, n, ok := decodeBytesField(body)
			if !ok {
				return m
			}
			m.Ciphertext = payload
			body = body[n:]
		default:
			n := skipField(body, tag&0x7)
			if n == 0 {
				return m
			}
			body = body[n:]
		}
	}
	return m
}
