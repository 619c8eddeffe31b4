package cipher

import (
	"crypto/hmac"

	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/util/memzero"
)

const (
	// MACLength is the truncated HMAC-SHA-256 length appended to messages.
	MACLength = 8

	aesKeyLength  = 32
	macKeyLength  = 32
	aesIVLength   = 16
	derivedLength = aesKeyLength + macKeyLength + aesIVLength
)

// AESSHA256 is the olm cipher. It is pure and stateless; the kdf-info string
// is the only configuration.
type AESSHA256 struct {
	info []byte
}

// NewAESSHA256 returns a cipher whose key schedule is bound to info.
func NewAESSHA256(info string) AESSHA256 {
	return AESSHA256{info: []byte(info)}
}

type derivedKeys struct {
	aesKey []byte
	macKey []byte
	iv     []byte
}

func (k derivedKeys) wipe() {
	memzero.ZeroAll(k.aesKey, k.macKey, k.iv)
}

// deriveKeys expands the ikm (a 32-byte message key, the 128-byte megolm
// value, or a pickle password) into the AES key, MAC key and IV. The HKDF
// salt is a zero-filled block, per the olm key schedule.
func (c AESSHA256) deriveKeys(key []byte) (derivedKeys, error) {
	okm, err := crypto.HKDFSHA256(key, nil, c.info, derivedLength)
	if err != nil {
		return derivedKeys{}, err
	}
	return derivedKeys{
		aesKey: okm[:aesKeyLength],
		macKey: okm[aesKeyLength : aesKeyLength+macKeyLength],
		iv:     okm[aesKeyLength+macKeyLength:],
	}, nil
}

// Encrypt produces the AES-CBC ciphertext of plaintext under the keys
// derived from key. The MAC is computed separately over the full message
// framing via MAC.
func (c AESSHA256) Encrypt(key, plaintext []byte) ([]byte, error) {
	keys, err := c.deriveKeys(key)
	if err != nil {
		return nil, err
	}
	defer keys.wipe()
	return crypto.AESCBCEncrypt(keys.aesKey, keys.iv, plaintext)
}

// Decrypt reverses Encrypt. A padding failure reports ErrBadMessageFormat;
// callers that have already authenticated the ciphertext surface it as a MAC
// failure to avoid acting as a padding oracle.
func (c AESSHA256) Decrypt(key, ciphertext []byte) ([]byte, error) {
	keys, err := c.deriveKeys(key)
	if err != nil {
		return nil, err
	}
	defer keys.wipe()
	plaintext, err := crypto.AESCBCDecrypt(keys.aesKey, keys.iv, ciphertext)
	if err != nil {
		return nil, domain.ErrBadMessageFormat
	}
	return plaintext, nil
}

// MAC returns the truncated HMAC-SHA-256 over message under the MAC key
// derived from key.
func (c AESSHA256) MAC(key, message []byte) ([]byte, error) {
	keys, err := c.deriveKeys(key)
	if err != nil {
		return nil, err
	}
	defer keys.wipe()
	sum := crypto.HMACSHA256(keys.macKey, message)
	mac := make([]byte, MACLength)
	copy(mac, sum)
	memzero.Zero(sum)
	return mac, nil
}

// VerifyMAC checks mac against message in constant time.
func (c AESSHA256) VerifyMAC(key, message, mac []byte) (bool, error) {
	if len(mac) != MACLength {
		return false, nil
	}
	expected, err := c.MAC(key, message)
	if err != nil {
		return false, err
	}
	ok := hmac.Equal(expected, mac)
	memzero.Zero(expected)
	return ok, nil
}
