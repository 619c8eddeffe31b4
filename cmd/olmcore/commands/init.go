package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olmcore/internal/account"
	"olmcore/internal/crypto"
)

func initCmd() *cobra.Command {
	var oneTimeKeys int
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate the local account and store it securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			acct, err := account.New(nil)
			if err != nil {
				return err
			}
			if err := acct.GenerateOneTimeKeys(oneTimeKeys, nil); err != nil {
				return err
			}
			if err := st.SaveAccount(passphrase, acct); err != nil {
				return err
			}
			fmt.Printf("Account created.\nIdentity key: %s\nFingerprint:  %s\nOne-time keys: %d\n",
				crypto.Base64Encode(acct.IdentityKey.Public.Slice()),
				crypto.Fingerprint(acct.IdentityKey.Public),
				len(acct.OneTimeKeys))
			return nil
		},
	}
	cmd.Flags().IntVar(&oneTimeKeys, "one-time-keys", 10, "number of one-time keys to generate")
	return cmd
}
