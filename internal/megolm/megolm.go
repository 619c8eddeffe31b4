package megolm

import (
	"olmcore/internal/cipher"
	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/pickle"
	"olmcore/internal/util/memzero"
)

const (
	// RatchetParts is the number of independent hash chains.
	RatchetParts = 4

	// PartLength is the size of one chain value.
	PartLength = 32

	// RatchetLength is the total ratchet size, PartLength * RatchetParts.
	RatchetLength = RatchetParts * PartLength
)

// hashKeySeeds key the per-part HMAC updates.
var hashKeySeeds = [RatchetParts]byte{0x00, 0x01, 0x02, 0x03}

// Cipher is the shared group-path cipher configuration.
var Cipher = cipher.NewAESSHA256("MEGOLM_KEYS")

// Megolm is one ratchet value: the counter and the four parts R0..R3.
type Megolm struct {
	Data    [RatchetParts][PartLength]byte
	Counter uint32
}

// New builds a ratchet from the 128-byte concatenation R0‖R1‖R2‖R3.
func New(initial []byte, counter uint32) (*Megolm, error) {
	if len(initial) != RatchetLength {
		return nil, domain.ErrBadSessionKey
	}
	m := &Megolm{Counter: counter}
	for i := 0; i < RatchetParts; i++ {
		copy(m.Data[i][:], initial[i*PartLength:(i+1)*PartLength])
	}
	return m, nil
}

// Bytes returns the 128-byte concatenation of the parts, which feeds the
// group cipher as derivation material.
func (m *Megolm) Bytes() []byte {
	out := make([]byte, RatchetLength)
	for i := 0; i < RatchetParts; i++ {
		copy(out[i*PartLength:], m.Data[i][:])
	}
	return out
}

// Copy returns an independent ratchet with the same state.
func (m *Megolm) Copy() *Megolm {
	dup := *m
	return &dup
}

// Clear wipes the ratchet state.
func (m *Megolm) Clear() {
	for i := range m.Data {
		memzero.Zero(m.Data[i][:])
	}
	m.Counter = 0
}

// Advance steps the ratchet to counter+1. The lowest part always changes;
// a part that carries re-keys every part above it from itself.
func (m *Megolm) Advance() {
	mask := uint32(0x00FFFFFF)
	h := 0
	m.Counter++

	for h < RatchetParts {
		if m.Counter&mask == 0 {
			break
		}
		h++
		mask >>= 8
	}

	for i := RatchetParts - 1; i >= h; i-- {
		m.rehashPart(h, i)
	}
}

// AdvanceTo steps the ratchet to the target index. It is equivalent to
// target-counter single steps and must only move forwards; the 0x100 case
// below handles a digit that has wrapped past the target's.
func (m *Megolm) AdvanceTo(target uint32) {
	for j := 0; j < RatchetParts; j++ {
		shift := uint((RatchetParts - j - 1) * 8)

		steps := ((target >> shift) - (m.Counter >> shift)) & 0xFF
		if steps == 0 {
			if target < m.Counter {
				steps = 0x100
			} else {
				continue
			}
		}

		// All but the last step only touch R(j).
		for steps > 1 {
			m.rehashPart(j, j)
			steps--
		}

		// The final step also re-keys every part above j.
		for k := RatchetParts - 1; k >= j; k-- {
			m.rehashPart(j, k)
		}
		m.Counter = target & (0xFFFFFFFF << shift)
	}
}

func (m *Megolm) rehashPart(from, to int) {
	sum := crypto.HMACSHA256(m.Data[from][:], []byte{hashKeySeeds[to]})
	copy(m.Data[to][:], sum)
	memzero.Zero(sum)
}

// Pickle appends the ratchet in its serialized form: the 128 data bytes
// followed by the counter.
func (m *Megolm) Pickle(out []byte) []byte {
	for i := 0; i < RatchetParts; i++ {
		out = pickle.AppendBytes(out, m.Data[i][:])
	}
	return pickle.AppendUint32(out, m.Counter)
}

// Unpickle reads the serialized form written by Pickle.
func (m *Megolm) Unpickle(d *pickle.Decoder) {
	for i := 0; i < RatchetParts; i++ {
		d.Read(m.Data[i][:])
	}
	m.Counter = d.Uint32()
}
