// Package megolm implements the group-message hash ratchet: a 32-bit counter
// driving four 32-byte parts. Part i is re-keyed every 2^(8(3-i))
// iterations (R0 every 2^24, R3 on every step), so advancing to any future
// index costs O(log n) hashes while a single part still changes on every step.
package megolm
