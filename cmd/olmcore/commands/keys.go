package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olmcore/internal/crypto"
)

func keysCmd() *cobra.Command {
	var markPublished bool
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the identity key and unpublished one-time keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := loadAccount()
			if err != nil {
				return err
			}
			fmt.Printf("identity: %s\n", crypto.Base64Encode(acct.IdentityKey.Public.Slice()))
			fmt.Printf("signing:  %s\n", crypto.Base64Encode(acct.SigningKey.Public.Slice()))
			for _, k := range acct.UnpublishedOneTimeKeys() {
				fmt.Printf("one-time %d: %s\n", k.ID, crypto.Base64Encode(k.Key.Public.Slice()))
			}
			if markPublished {
				acct.MarkKeysAsPublished()
				return st.SaveAccount(passphrase, acct)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&markPublished, "mark-published", false, "flag the printed one-time keys as published")
	return cmd
}
