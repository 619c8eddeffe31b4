// Package store persists CLI state on disk: the local account inside a
// passphrase-encrypted blob, and session pickles (which carry their own
// encryption) as plain files.
package store
