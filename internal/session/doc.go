// Package session implements the pairwise session state machine: outbound
// and inbound establishment from a triple Diffie-Hellman, pre-key message
// framing until the first reply arrives, and dispatch into the Double
// Ratchet for everything after. Messages cross the wire as unpadded base64.
package session
