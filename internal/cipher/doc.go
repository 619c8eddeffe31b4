// Package cipher implements the authenticated symmetric transform shared by
// the pairwise and group paths: HKDF-SHA-256 key expansion into an AES-256
// key, an HMAC-SHA-256 key and an IV, AES-CBC with PKCS#7 padding, and an
// 8-byte truncated MAC. The two paths differ only in the kdf-info constant
// they are constructed with.
package cipher
