// Package group implements the one-to-many sessions built on the megolm
// hash ratchet. The outbound side owns the advancing ratchet and an Ed25519
// signing key; the inbound side keeps two ratchet values — the earliest it
// has ever known and the latest it has seen — giving out-of-order decryption
// with a hard floor on how far back a received key reaches.
package group
