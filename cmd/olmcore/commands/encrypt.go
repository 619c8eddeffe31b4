package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olmcore/internal/session"
)

// loadSession fetches and unpickles a stored session by id.
func loadSession(id string) (*session.Session, error) {
	if err := requirePassphrase(); err != nil {
		return nil, err
	}
	pickled, ok, err := st.LoadSessionPickle(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no session %s", id)
	}
	return session.Unpickle(pickleKey(), pickled)
}

// saveSession pickles a session back to the store.
func saveSession(id string, s *session.Session) error {
	pickled, err := s.Pickle(pickleKey())
	if err != nil {
		return err
	}
	return st.SaveSessionPickle(id, pickled)
}

func encryptCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "encrypt <message>",
		Short: "Encrypt a message on a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(sessionID)
			if err != nil {
				return err
			}
			messageType, message, err := s.Encrypt([]byte(args[0]), nil)
			if err != nil {
				return err
			}
			if err := saveSession(sessionID, s); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", messageType, message)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (hex)")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}
