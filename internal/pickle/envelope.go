package pickle

import (
	"olmcore/internal/cipher"
	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/util/memzero"
)

// envelopeCipher keys the encrypted-pickle envelope. The AES key, MAC key
// and IV are all derived from the caller's password via HKDF.
var envelopeCipher = cipher.NewAESSHA256("Pickle")

// Seal encrypts a raw pickle under key and returns it as padded base64.
func Seal(key, raw []byte) ([]byte, error) {
	ct, err := envelopeCipher.Encrypt(key, raw)
	if err != nil {
		return nil, err
	}
	mac, err := envelopeCipher.MAC(key, ct)
	if err != nil {
		return nil, err
	}
	blob := append(ct, mac...)
	out := crypto.Base64EncodePadded(blob)
	memzero.Zero(blob)
	return out, nil
}

// Open reverses Seal: base64, constant-time MAC check, decrypt. A wrong key
// or a modified ciphertext surfaces as ErrBadMessageMAC; structural damage
// discovered after decryption surfaces as ErrCorruptedPickle.
func Open(key, pickled []byte) ([]byte, error) {
	blob, err := crypto.Base64DecodePadded(pickled)
	if err != nil {
		return nil, domain.ErrInvalidBase64
	}
	if len(blob) < cipher.MACLength {
		return nil, domain.ErrBadMessageMAC
	}
	ct := blob[:len(blob)-cipher.MACLength]
	mac := blob[len(blob)-cipher.MACLength:]
	ok, err := envelopeCipher.VerifyMAC(key, ct, mac)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrBadMessageMAC
	}
	raw, err := envelopeCipher.Decrypt(key, ct)
	if err != nil {
		return nil, domain.ErrCorruptedPickle
	}
	return raw, nil
}
