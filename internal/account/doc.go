// Package account holds the local party's long-term keys: the Curve25519
// identity pair the triple-DH is rooted in, an Ed25519 signing pair, and a
// bounded supply of one-time keys that inbound session establishment
// consumes by public-key lookup.
package account
