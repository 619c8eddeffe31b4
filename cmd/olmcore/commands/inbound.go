package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olmcore/internal/domain"
	"olmcore/internal/session"
)

func inboundCmd() *cobra.Command {
	var theirIdentityArg string
	cmd := &cobra.Command{
		Use:   "inbound <pre-key-message>",
		Short: "Establish an inbound session from a received pre-key message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := loadAccount()
			if err != nil {
				return err
			}
			var theirIdentity *domain.Curve25519Public
			if theirIdentityArg != "" {
				key, err := parseKey(theirIdentityArg)
				if err != nil {
					return err
				}
				theirIdentity = &key
			}
			s, err := session.NewInbound(acct, theirIdentity, []byte(args[0]))
			if err != nil {
				return err
			}

			plaintext, err := s.Decrypt(domain.MessageTypePreKey, []byte(args[0]))
			if err != nil {
				return err
			}
			acct.RemoveOneTimeKey(s.UsedOneTimeKey())

			id := s.ID()
			pickled, err := s.Pickle(pickleKey())
			if err != nil {
				return err
			}
			if err := st.SaveSessionPickle(fmt.Sprintf("%x", id), pickled); err != nil {
				return err
			}
			if err := st.SaveAccount(passphrase, acct); err != nil {
				return err
			}
			fmt.Printf("session %x\n%s\n", id, plaintext)
			return nil
		},
	}
	cmd.Flags().StringVar(&theirIdentityArg, "their-identity", "", "peer identity key to cross-check (base64)")
	return cmd
}
