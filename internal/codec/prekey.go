package codec

// Pre-key message field tags.
const (
	tagPreKeyOneTimeKey  = 0x0A // field 1, length-delimited
	tagPreKeyBaseKey     = 0x12 // field 2, length-delimited
	tagPreKeyIdentityKey = 0x1A // field 3, length-delimited
	tagPreKeyMessage     = 0x22 // field 4, length-delimited
)

// PreKeyMessage is the establishment envelope wrapping the first normal
// message of a session.
type PreKeyMessage struct {
	Version     byte
	OneTimeKey  []byte
	BaseKey     []byte
	IdentityKey []byte
	Message     []byte
}

// Encode lays out the envelope: version byte, one-time key, base key,
// identity key, embedded message. The embedded message carries its own MAC;
// the envelope has none.
func (p *PreKeyMessage) Encode() []byte {
	out := make([]byte, 0, p.EncodedLength())
	out = append(out, p.Version)
	out = appendBytesField(out, tagPreKeyOneTimeKey, p.OneTimeKey)
	out = appendBytesField(out, tagPreKeyBaseKey, p.BaseKey)
	out = appendBytesField(out, tagPreKeyIdentityKey, p.IdentityKey)
	return appendBytesField(out, tagPreKeyMessage, p.Message)
}

// EncodedLength returns the size Encode will produce.
func (p *PreKeyMessage) EncodedLength() int {
	length := 1
	for _, payload := range [][]byte{p.OneTimeKey, p.BaseKey, p.IdentityKey, p.Message} {
		length += 1 + VarintLength(uint32(len(payload))) + len(payload)
	}
	return length
}

// DecodePreKeyMessage parses input. Fields absent or malformed stay unset.
func DecodePreKeyMessage(input []byte) PreKeyMessage {
	var p PreKeyMessage
	if len(input) < 1 {
		return p
	}
	p.Version = input[0]
	body := input[1:]
	for len(body) > 0 {
		tag := uint32(body[0])
		body = body[1:]
		switch tag {
		case tagPreKeyOneTimeKey, tagPreKeyBaseKey, tagPreKeyIdentityKey, tagPreKeyMessage:
			payload, n, ok := decodeBytesField(body)
			if !ok {
				return p
			}
			switch tag {
			case tagPreKeyOneTimeKey:
				p.OneTimeKey = payload
			case tagPreKeyBaseKey:
				p.BaseKey = payload
			case tagPreKeyIdentityKey:
				p.IdentityKey = payload
			case tagPreKeyMessage:
				p.Message = payload
			}
			body = body[n:]
		default:
			n := skipField(body, tag&0x7)
			if n == 0 {
				return p
			}
			body = body[n:]
		}
	}
	return p
}
