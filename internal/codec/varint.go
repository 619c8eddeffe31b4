package codec

// Wire types used by the message framings.
const (
	wireVarint = 0
	wireBytes  = 2
)

// AppendVarint appends v in base-128 varint form, least-significant group
// first with the high bit as continuation.
func AppendVarint(out []byte, v uint32) []byte {
	for v >= 0x80 {
		out = append(out, byte(v)|0x80)
		v >>= 7
	}
	return append(out, byte(v))
}

// VarintLength returns the encoded size of v.
func VarintLength(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeVarint reads a varint from the front of b. It returns the value, the
// number of bytes consumed, and whether the read was complete and in range.
func DecodeVarint(b []byte) (uint32, int, bool) {
	var v uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		v |= uint64(b[i]&0x7F) << shift
		if b[i] < 0x80 {
			if v > 0xFFFFFFFF {
				return 0, 0, false
			}
			return uint32(v), i + 1, true
		}
		shift += 7
		if shift > 35 {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

// skipField advances past a field of the given wire type. It returns the
// number of bytes consumed, or 0 if the field cannot be skipped.
func skipField(b []byte, wireType uint32) int {
	switch wireType {
	case wireVarint:
		_, n, ok := DecodeVarint(b)
		if !ok {
			return 0
		}
		return n
	case wireBytes:
		length, n, ok := DecodeVarint(b)
		if !ok || uint32(len(b)-n) < length {
			return 0
		}
		return n + int(length)
	default:
		return 0
	}
}

// decodeBytesField reads a length-delimited payload. The returned slice
// aliases b.
func decodeBytesField(b []byte) ([]byte, int, bool) {
	length, n, ok := DecodeVarint(b)
	if !ok || uint32(len(b)-n) < length {
		return nil, 0, false
	}
	return b[n : n+int(length)], n + int(length), true
}

func appendBytesField(out []byte, tag byte, payload []byte) []byte {
	out = append(out, tag)
	out = AppendVarint(out, uint32(len(payload)))
	return append(out, payload...)
}
