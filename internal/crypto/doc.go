// Package crypto wraps the concrete primitives the session machinery is
// built on: Curve25519 key agreement, Ed25519 signatures, AES-256-CBC with
// PKCS#7 padding, HKDF/HMAC over SHA-256, and the base64 wire encodings.
//
// Key generation takes an io.Reader so callers can supply deterministic
// entropy in tests; pass nil for crypto/rand.
package crypto
