// Package ratchet implements the pairwise Double Ratchet: a DH ratchet that
// re-keys the root whenever the remote side presents a new ratchet key,
// combined with per-message symmetric chain advancement. Out-of-order
// messages are served from a bounded cache of skipped message keys, and a
// bounded list of previous receiver chains keeps messages decryptable across
// DH ratchet steps.
//
// Failure paths never mutate ratchet state: every decryption is computed
// into locals, authenticated, and only then committed.
package ratchet
