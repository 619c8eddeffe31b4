// Package commands defines the olmcore CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init       Create the local account (identity + one-time keys)
//   - keys       Print the identity key and unpublished one-time keys
//   - outbound   Establish a session towards a peer's published keys
//   - inbound    Establish a session from a received pre-key message
//   - encrypt    Encrypt a message on a stored session
//   - decrypt    Decrypt a message on a stored session
//   - group      Sender and receiver group-session operations
//
// # Implementation
//
// The root command prepares the state directory and file store before any
// subcommand runs. Session state round-trips through encrypted pickles keyed
// by the passphrase, so every state-advancing command loads, operates, and
// stores back.
package commands
