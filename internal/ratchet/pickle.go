package ratchet

import (
	"olmcore/internal/domain"
	"olmcore/internal/pickle"
)

// Pickle appends the ratchet state in its fixed wire layout: root key,
// counted sender chain, counted receiver chains, counted skipped keys.
func (r *Ratchet) Pickle(out []byte) []byte {
	out = pickle.AppendBytes(out, r.rootKey[:])

	if r.senderChain.set {
		out = pickle.AppendUint32(out, 1)
		out = pickle.AppendBytes(out, r.senderChain.RatchetKey.Public[:])
		out = pickle.AppendBytes(out, r.senderChain.RatchetKey.Private[:])
		out = pickle.AppendBytes(out, r.senderChain.Chain.Key[:])
		out = pickle.AppendUint32(out, r.senderChain.Chain.Index)
	} else {
		out = pickle.AppendUint32(out, 0)
	}

	out = pickle.AppendUint32(out, uint32(len(r.receiverChains)))
	for i := range r.receiverChains {
		out = pickle.AppendBytes(out, r.receiverChains[i].RatchetKey[:])
		out = pickle.AppendBytes(out, r.receiverChains[i].Chain.Key[:])
		out = pickle.AppendUint32(out, r.receiverChains[i].Chain.Index)
	}

	out = pickle.AppendUint32(out, uint32(len(r.skippedMessageKeys)))
	for i := range r.skippedMessageKeys {
		out = pickle.AppendBytes(out, r.skippedMessageKeys[i].RatchetKey[:])
		out = pickle.AppendBytes(out, r.skippedMessageKeys[i].MessageKey.Key[:])
		out = pickle.AppendUint32(out, r.skippedMessageKeys[i].MessageKey.Index)
	}
	return out
}

// Unpickle reads the layout written by Pickle. The ratchet is cleared first,
// so a failed read leaves it empty rather than half-populated; the caller
// checks the decoder for failure.
func (r *Ratchet) Unpickle(d *pickle.Decoder) error {
	r.Clear()
	d.Read(r.rootKey[:])

	senderCount := d.Uint32()
	if d.Failed() || senderCount > maxPickleListLength {
		r.Clear()
		return domain.ErrCorruptedPickle
	}
	for i := uint32(0); i < senderCount; i++ {
		var chain senderChain
		d.Read(chain.RatchetKey.Public[:])
		d.Read(chain.RatchetKey.Private[:])
		d.Read(chain.Chain.Key[:])
		chain.Chain.Index = d.Uint32()
		chain.set = true
		// Only one sender chain is ever active.
		if i == 0 {
			r.senderChain = chain
		}
	}

	receiverCount := d.Uint32()
	if d.Failed() || receiverCount > maxPickleListLength {
		r.Clear()
		return domain.ErrCorruptedPickle
	}
	for i := uint32(0); i < receiverCount; i++ {
		var chain receiverChain
		d.Read(chain.RatchetKey[:])
		d.Read(chain.Chain.Key[:])
		chain.Chain.Index = d.Uint32()
		r.receiverChains = append(r.receiverChains, chain)
	}

	skippedCount := d.Uint32()
	if d.Failed() || skippedCount > maxPickleListLength {
		r.Clear()
		return domain.ErrCorruptedPickle
	}
	for i := uint32(0); i < skippedCount; i++ {
		var sk skippedMessageKey
		d.Read(sk.RatchetKey[:])
		d.Read(sk.MessageKey.Key[:])
		sk.MessageKey.Index = d.Uint32()
		r.skippedMessageKeys = append(r.skippedMessageKeys, sk)
	}

	if d.Failed() {
		r.Clear()
		return domain.ErrCorruptedPickle
	}
	return nil
}

// maxPickleListLength rejects absurd counts before allocating for them.
const maxPickleListLength = 4096
