package pickle

import "encoding/binary"

// AppendUint32 appends v big-endian.
func AppendUint32(out []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(out, v)
}

// AppendBool appends v as a single byte.
func AppendBool(out []byte, v bool) []byte {
	if v {
		return append(out, 1)
	}
	return append(out, 0)
}

// AppendBytes inlines b with no length prefix; the schema fixes the length.
func AppendBytes(out, b []byte) []byte {
	return append(out, b...)
}

// Decoder reads a raw pickle. It is total: reads past the end of the buffer
// return zero values and mark the decoder failed, so callers can decode a
// whole structure and check Failed once.
type Decoder struct {
	buf    []byte
	failed bool
}

// NewDecoder wraps buf for reading.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Uint32 reads a big-endian counter.
func (d *Decoder) Uint32() uint32 {
	if d.failed || len(d.buf) < 4 {
		d.failed = true
		return 0
	}
	v := binary.BigEndian.Uint32(d.buf)
	d.buf = d.buf[4:]
	return v
}

// Bool reads a single-byte flag.
func (d *Decoder) Bool() bool {
	if d.failed || len(d.buf) < 1 {
		d.failed = true
		return false
	}
	v := d.buf[0] != 0
	d.buf = d.buf[1:]
	return v
}

// Read fills dst from the buffer.
func (d *Decoder) Read(dst []byte) {
	if d.failed || len(d.buf) < len(dst) {
		d.failed = true
		return
	}
	copy(dst, d.buf)
	d.buf = d.buf[len(dst):]
}

// Remaining reports how many bytes are left unread.
func (d *Decoder) Remaining() int { return len(d.buf) }

// Failed reports whether any read ran past the end of the buffer.
func (d *Decoder) Failed() bool { return d.failed }
