package ratchet

import (
	"errors"
	"io"

	"olmcore/internal/cipher"
	"olmcore/internal/codec"
	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/util/memzero"
)

const (
	// MaxReceiverChains bounds how many previous inbound chains are kept.
	MaxReceiverChains = 5

	// MaxSkippedMessageKeys bounds the out-of-order key cache.
	MaxSkippedMessageKeys = 40

	// maxMessageGap bounds how many chain advances a single message may
	// demand, so a hostile counter cannot drive an unbounded hash loop.
	maxMessageGap = 2000

	sharedKeyLength = 32
)

// KDF info constants. These are part of the wire-compatible key schedule and
// must not change.
var (
	kdfInfoRoot    = []byte("OLM_ROOT")
	kdfInfoRatchet = []byte("OLM_RATCHET")
)

// Cipher is the pairwise-path cipher configuration.
var Cipher = cipher.NewAESSHA256("OLM_KEYS")

var errNoChains = errors.New("ratchet has no chain to send from")

// Ratchet is the Double Ratchet state for one pairwise session.
type Ratchet struct {
	rootKey            [sharedKeyLength]byte
	senderChain        senderChain
	receiverChains     []receiverChain     // newest first
	skippedMessageKeys []skippedMessageKey // oldest first
}

// InitializeAsAlice seeds the ratchet from the sending side: the derived
// chain key becomes the sender chain under ratchetKey. There is no receiver
// chain until the peer replies.
func (r *Ratchet) InitializeAsAlice(secret []byte, ratchetKey domain.Curve25519KeyPair) error {
	r.Clear()
	okm, err := crypto.HKDFSHA256(secret, nil, kdfInfoRoot, 2*sharedKeyLength)
	if err != nil {
		return err
	}
	copy(r.rootKey[:], okm[:sharedKeyLength])
	r.senderChain = senderChain{RatchetKey: ratchetKey, set: true}
	copy(r.senderChain.Chain.Key[:], okm[sharedKeyLength:])
	memzero.Zero(okm)
	return nil
}

// InitializeAsBob seeds the ratchet from the receiving side: the derived
// chain key becomes the receiver chain for theirRatchetKey. The first
// encrypt will perform a DH ratchet step to create a sender chain.
func (r *Ratchet) InitializeAsBob(secret []byte, theirRatchetKey domain.Curve25519Public) error {
	r.Clear()
	okm, err := crypto.HKDFSHA256(secret, nil, kdfInfoRoot, 2*sharedKeyLength)
	if err != nil {
		return err
	}
	copy(r.rootKey[:], okm[:sharedKeyLength])
	chain := receiverChain{RatchetKey: theirRatchetKey}
	copy(chain.Chain.Key[:], okm[sharedKeyLength:])
	r.receiverChains = append([]receiverChain{chain}, r.receiverChains...)
	memzero.Zero(okm)
	return nil
}

// Clear wipes all key material and resets the ratchet.
func (r *Ratchet) Clear() {
	memzero.Zero(r.rootKey[:])
	r.senderChain.wipe()
	for i := range r.receiverChains {
		r.receiverChains[i].wipe()
	}
	for i := range r.skippedMessageKeys {
		r.skippedMessageKeys[i].wipe()
	}
	r.receiverChains = nil
	r.skippedMessageKeys = nil
}

// SkippedMessageKeyCount reports how many out-of-order keys are stashed.
func (r *Ratchet) SkippedMessageKeyCount() int { return len(r.skippedMessageKeys) }

// ReceiverChainCount reports how many inbound chains are retained.
func (r *Ratchet) ReceiverChainCount() int { return len(r.receiverChains) }

// advancedRoot derives the next (root key, chain key) pair from a DH output
// without touching the ratchet, so failed decryptions can discard it.
func (r *Ratchet) advancedRoot(dh []byte) (root, chain [sharedKeyLength]byte, err error) {
	okm, err := crypto.HKDFSHA256(dh, r.rootKey[:], kdfInfoRatchet, 2*sharedKeyLength)
	if err != nil {
		return root, chain, err
	}
	copy(root[:], okm[:sharedKeyLength])
	copy(chain[:], okm[sharedKeyLength:])
	memzero.Zero(okm)
	return root, chain, nil
}

// Encrypt produces a framed, authenticated message. When no sender chain
// exists (after initialising as Bob, or after the peer ratcheted), a new
// ratchet key pair is generated from random and the root is advanced first.
// Given identical state and identical random bytes the output is
// deterministic.
func (r *Ratchet) Encrypt(plaintext []byte, random io.Reader) ([]byte, error) {
	if !r.senderChain.set {
		if len(r.receiverChains) == 0 {
			return nil, errNoChains
		}
		pair, err := crypto.GenerateCurve25519(random)
		if err != nil {
			return nil, err
		}
		dh, err := crypto.SharedSecret(pair.Private, r.receiverChains[0].RatchetKey)
		if err != nil {
			return nil, err
		}
		root, chain, err := r.advancedRoot(dh)
		memzero.Zero(dh)
		if err != nil {
			return nil, err
		}
		r.rootKey = root
		r.senderChain = senderChain{RatchetKey: pair, Chain: chainKey{Key: chain}, set: true}
		memzero.ZeroAll(root[:], chain[:])
	}

	mk := r.senderChain.Chain.messageKey()
	defer mk.wipe()
	r.senderChain.Chain.advance()

	ciphertext, err := Cipher.Encrypt(mk.Key[:], plaintext)
	if err != nil {
		return nil, err
	}
	msg := codec.Message{
		Version:    codec.ProtocolVersion,
		RatchetKey: r.senderChain.RatchetKey.Public.Slice(),
		Counter:    mk.Index,
		Ciphertext: ciphertext,
	}
	body := msg.Encode()
	mac, err := Cipher.MAC(mk.Key[:], body)
	if err != nil {
		return nil, err
	}
	return append(body, mac...), nil
}

// Decrypt authenticates and decrypts a framed message. On any failure the
// ratchet state is untouched; derived key material is wiped before return.
func (r *Ratchet) Decrypt(input []byte) ([]byte, error) {
	msg := codec.DecodeMessage(input, cipher.MACLength)
	if len(input) > 0 && msg.Version != codec.ProtocolVersion {
		return nil, domain.ErrBadMessageVersion
	}
	if !msg.HasCounter || len(msg.RatchetKey) != crypto.KeyLength || len(msg.Ciphertext) == 0 {
		return nil, domain.ErrBadMessageFormat
	}
	var theirKey domain.Curve25519Public
	copy(theirKey[:], msg.RatchetKey)

	chainIndex := -1
	for i := range r.receiverChains {
		if r.receiverChains[i].RatchetKey.Equal(theirKey) {
			chainIndex = i
			break
		}
	}

	switch {
	case chainIndex < 0:
		return r.decryptForNewChain(theirKey, &msg, input)
	case msg.Counter < r.receiverChains[chainIndex].Chain.Index:
		return r.decryptFromSkippedKeys(theirKey, &msg, input)
	default:
		return r.decryptForExistingChain(chainIndex, &msg, input)
	}
}

// decryptFromSkippedKeys serves a message older than its chain's current
// index from the skipped-key cache. The entry is consumed on success, so a
// replay of the same message fails with ErrUnknownMessageIndex.
func (r *Ratchet) decryptFromSkippedKeys(theirKey domain.Curve25519Public, msg *codec.Message, input []byte) ([]byte, error) {
	for i := range r.skippedMessageKeys {
		sk := &r.skippedMessageKeys[i]
		if sk.MessageKey.Index != msg.Counter || !sk.RatchetKey.Equal(theirKey) {
			continue
		}
		plaintext, err := r.openMessage(&sk.MessageKey, msg, input)
		if err != nil {
			return nil, err
		}
		sk.wipe()
		r.skippedMessageKeys = append(r.skippedMessageKeys[:i], r.skippedMessageKeys[i+1:]...)
		return plaintext, nil
	}
	return nil, domain.ErrUnknownMessageIndex
}

// decryptForExistingChain advances a copy of the chain to the message index,
// stashing the keys of any skipped messages, and commits only after the MAC
// verifies.
func (r *Ratchet) decryptForExistingChain(chainIndex int, msg *codec.Message, input []byte) ([]byte, error) {
	chain := r.receiverChains[chainIndex].Chain
	if msg.Counter-chain.Index > maxMessageGap {
		return nil, domain.ErrUnknownMessageIndex
	}
	skipped := r.deriveSkipped(&chain, r.receiverChains[chainIndex].RatchetKey, msg.Counter)

	mk := chain.messageKey()
	chain.advance()

	plaintext, err := r.openMessage(&mk, msg, input)
	mk.wipe()
	if err != nil {
		wipeSkipped(skipped)
		chain.wipe()
		return nil, err
	}

	r.receiverChains[chainIndex].Chain = chain
	r.stashSkipped(skipped)
	return plaintext, nil
}

// decryptForNewChain handles a message on a ratchet key we have not seen:
// DH with our current sender ratchet key advances the root into a fresh
// receiver chain starting at counter zero. The sender chain is discarded on
// commit, forcing our next encrypt to ratchet as well.
func (r *Ratchet) decryptForNewChain(theirKey domain.Curve25519Public, msg *codec.Message, input []byte) ([]byte, error) {
	// The peer cannot legitimately ratchet before we have a sender chain
	// for it to respond to.
	if !r.senderChain.set {
		return nil, domain.ErrBadMessageFormat
	}
	if msg.Counter > maxMessageGap {
		return nil, domain.ErrUnknownMessageIndex
	}
	dh, err := crypto.SharedSecret(r.senderChain.RatchetKey.Private, theirKey)
	if err != nil {
		return nil, err
	}
	root, chainStart, err := r.advancedRoot(dh)
	memzero.Zero(dh)
	if err != nil {
		return nil, err
	}
	chain := chainKey{Key: chainStart}
	skipped := r.deriveSkipped(&chain, theirKey, msg.Counter)

	mk := chain.messageKey()
	chain.advance()

	plaintext, err := r.openMessage(&mk, msg, input)
	mk.wipe()
	if err != nil {
		wipeSkipped(skipped)
		chain.wipe()
		memzero.ZeroAll(root[:], chainStart[:])
		return nil, err
	}

	r.rootKey = root
	memzero.ZeroAll(root[:], chainStart[:])
	r.receiverChains = append([]receiverChain{{RatchetKey: theirKey, Chain: chain}}, r.receiverChains...)
	for len(r.receiverChains) > MaxReceiverChains {
		last := len(r.receiverChains) - 1
		r.receiverChains[last].wipe()
		r.receiverChains = r.receiverChains[:last]
	}
	r.senderChain.wipe()
	r.stashSkipped(skipped)
	return plaintext, nil
}

// deriveSkipped advances chain up to counter, collecting the message keys of
// the indices passed over. The keys are locals until the caller commits.
func (r *Ratchet) deriveSkipped(chain *chainKey, theirKey domain.Curve25519Public, counter uint32) []skippedMessageKey {
	var skipped []skippedMessageKey
	for chain.Index < counter {
		skipped = append(skipped, skippedMessageKey{RatchetKey: theirKey, MessageKey: chain.messageKey()})
		chain.advance()
	}
	return skipped
}

// stashSkipped commits stashed keys, evicting oldest entries over the cap.
func (r *Ratchet) stashSkipped(skipped []skippedMessageKey) {
	r.skippedMessageKeys = append(r.skippedMessageKeys, skipped...)
	for len(r.skippedMessageKeys) > MaxSkippedMessageKeys {
		r.skippedMessageKeys[0].wipe()
		r.skippedMessageKeys = r.skippedMessageKeys[1:]
	}
}

func wipeSkipped(skipped []skippedMessageKey) {
	for i := range skipped {
		skipped[i].wipe()
	}
}

// openMessage verifies the trailing MAC under mk and decrypts the
// ciphertext. Padding failures after a valid MAC are reported as MAC
// failures so the error cannot be used as a padding oracle.
func (r *Ratchet) openMessage(mk *messageKey, msg *codec.Message, input []byte) ([]byte, error) {
	body := input[:len(input)-cipher.MACLength]
	mac := input[len(input)-cipher.MACLength:]
	ok, err := Cipher.VerifyMAC(mk.Key[:], body, mac)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrBadMessageMAC
	}
	plaintext, err := Cipher.Decrypt(mk.Key[:], msg.Ciphertext)
	if err != nil {
		return nil, domain.ErrBadMessageMAC
	}
	return plaintext, nil
}
