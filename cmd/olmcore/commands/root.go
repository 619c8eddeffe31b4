package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"olmcore/internal/account"
	"olmcore/internal/store"
)

var (
	home       string
	passphrase string
	st         *store.FileStore
)

func Execute() error {
	root := &cobra.Command{
		Use:   "olmcore",
		Short: "End-to-end encrypted session CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".olmcore")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			st = store.NewFileStore(home)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.olmcore)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting keys and pickles")

	root.AddCommand(initCmd(), keysCmd(), outboundCmd(), inboundCmd(), encryptCmd(), decryptCmd(), groupCmd())
	return root.Execute()
}

// pickleKey derives the session-pickle key from the passphrase.
func pickleKey() []byte { return []byte(passphrase) }

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}

func loadAccount() (*account.Account, error) {
	if err := requirePassphrase(); err != nil {
		return nil, err
	}
	acct, err := st.LoadAccount(passphrase)
	if err != nil {
		return nil, fmt.Errorf("load account (run init first?): %w", err)
	}
	return acct, nil
}
