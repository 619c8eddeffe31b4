// Package codec encodes and decodes the binary message framings: base-128
// varints and tag-length-value fields, with the authentication trailer kept
// outside the TLV body. Decoders are total: malformed or truncated input
// leaves the corresponding fields unset and the caller decides which fields
// it requires.
package codec
