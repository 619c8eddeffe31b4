package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olmcore/internal/crypto"
	"olmcore/internal/domain"
	"olmcore/internal/session"
)

// parseKey decodes a base64 Curve25519 public key argument.
func parseKey(arg string) (domain.Curve25519Public, error) {
	var key domain.Curve25519Public
	raw, err := crypto.Base64Decode([]byte(arg))
	if err != nil {
		return key, fmt.Errorf("decode key %q: %w", arg, err)
	}
	if len(raw) != crypto.KeyLength {
		return key, fmt.Errorf("key %q: want %d bytes, got %d", arg, crypto.KeyLength, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

func outboundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outbound <their-identity-key> <their-one-time-key>",
		Short: "Establish an outbound session towards a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := loadAccount()
			if err != nil {
				return err
			}
			theirIdentity, err := parseKey(args[0])
			if err != nil {
				return err
			}
			theirOneTime, err := parseKey(args[1])
			if err != nil {
				return err
			}
			s, err := session.NewOutbound(acct, theirIdentity, theirOneTime, nil)
			if err != nil {
				return err
			}
			id := s.ID()
			pickled, err := s.Pickle(pickleKey())
			if err != nil {
				return err
			}
			if err := st.SaveSessionPickle(fmt.Sprintf("%x", id), pickled); err != nil {
				return err
			}
			fmt.Printf("session %x\n", id)
			return nil
		},
	}
}
