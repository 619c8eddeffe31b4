package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// AESCBCEncrypt encrypts plaintext with AES-256-CBC under the given key and
// IV, applying PKCS#7 padding. The IV is caller-supplied because the olm
// cipher derives it alongside the keys rather than transmitting it.
func AESCBCEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aescbc: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("aescbc: invalid IV length %d", len(iv))
	}
	padded := PKCS7Pad(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	return ct, nil
}

// AESCBCDecrypt decrypts AES-256-CBC ciphertext and removes PKCS#7 padding.
func AESCBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aescbc: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("aescbc: invalid IV length %d", len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("aescbc: ciphertext length %d not a multiple of block size", len(ciphertext))
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return PKCS7Unpad(plaintext, aes.BlockSize)
}

// PKCS7Pad appends PKCS#7 padding so the result length is a multiple of blockSize.
func PKCS7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	padding := make([]byte, pad)
	for i := range padding {
		padding[i] = byte(pad)
	}
	return append(append([]byte(nil), data...), padding...)
}

// PKCS7Unpad removes and validates PKCS#7 padding.
func PKCS7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("pkcs7: invalid data length %d", len(data))
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize {
		return nil, fmt.Errorf("pkcs7: invalid padding byte %d", pad)
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("pkcs7: inconsistent padding")
		}
	}
	return data[:len(data)-pad], nil
}
