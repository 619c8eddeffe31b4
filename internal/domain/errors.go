package domain

import "errors"

// The closed error taxonomy. Every failure a session operation can surface is
// one of these, possibly wrapped with context. State is never mutated on a
// path that returns an error.
var (
	ErrNotEnoughRandom      = errors.New("not enough entropy supplied")
	ErrBadMessageVersion    = errors.New("unsupported message protocol version")
	ErrBadMessageFormat     = errors.New("malformed message")
	ErrBadMessageMAC        = errors.New("message authentication failed")
	ErrBadMessageKeyID      = errors.New("message references an unknown or mismatched key")
	ErrInvalidBase64        = errors.New("invalid base64")
	ErrBadSessionKey        = errors.New("invalid group session key")
	ErrUnknownMessageIndex  = errors.New("no key available for message index")
	ErrUnknownPickleVersion = errors.New("unknown pickle version")
	ErrCorruptedPickle      = errors.New("corrupted pickle")
)
