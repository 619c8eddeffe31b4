package codec

// Group message field tags.
const (
	tagGroupMessageIndex = 0x08 // field 1, varint
	tagGroupCiphertext   = 0x12 // field 2, length-delimited
)

// GroupMessage is the decoded form of a megolm group message. The trailer
// (8-byte MAC followed by a 64-byte Ed25519 signature) sits outside the TLV
// body and is handled by the caller.
type GroupMessage struct {
	Version         byte
	HasMessageIndex bool
	MessageIndex    uint32
	Ciphertext      []byte
}

// Encode lays out the body: version byte, message index, ciphertext. The
// caller appends the MAC and signature over these bytes.
func (g *GroupMessage) Encode() []byte {
	out := make([]byte, 0, g.EncodedLength())
	out = append(out, g.Version)
	out = append(out, tagGroupMessageIndex)
	out = AppendVarint(out, g.MessageIndex)
	return appendBytesField(out, tagGroupCiphertext, g.Ciphertext)
}

// EncodedLength returns the body size Encode will produce, excluding the
// trailer.
func (g *GroupMessage) EncodedLength() int {
	length := 1
	length += 1 + VarintLength(g.MessageIndex)
	length += 1 + VarintLength(uint32(len(g.Ciphertext))) + len(g.Ciphertext)
	return length
}

// DecodeGroupMessage parses input, which carries a trailerLength-byte
// trailer after the TLV body. Fields absent or malformed stay unset.
func DecodeGroupMessage(input []byte, trailerLength int) GroupMessage {
	var g GroupMessage
	if len(input) < 1 {
		return g
	}
	g.Version = input[0]
	if len(input) < 1+trailerLength {
		return g
	}
	body := input[1 : len(input)-trailerLength]
	for len(body) > 0 {
		tag := uint32(body[0])
		body = body[1:]
		switch tag {
		case tagGroupMessageIndex:
			v, n, ok := DecodeVarint(body)
			if !ok {
				return g
			}
			g.MessageIndex = v
			g.HasMessageIndex = true
			body = body[n:]
		case tagGroupCiphertext:
			payload, n, ok := decodeBytesField(body)
			if !ok {
				return g
			}
			g.Ciphertext = payload
			body = body[n:]
		default:
			n := skipField(body, tag&0x7)
			if n == 0 {
				return g
			}
			body = body[n:]
		}
	}
	return g
}
