package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olmcore/internal/domain"
)

func decryptCmd() *cobra.Command {
	var sessionID, typeArg string
	cmd := &cobra.Command{
		Use:   "decrypt <message>",
		Short: "Decrypt a message on a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var messageType domain.MessageType
			switch typeArg {
			case "pre-key":
				messageType = domain.MessageTypePreKey
			case "message":
				messageType = domain.MessageTypeNormal
			default:
				return fmt.Errorf("unknown message type %q (want pre-key or message)", typeArg)
			}
			s, err := loadSession(sessionID)
			if err != nil {
				return err
			}
			plaintext, err := s.Decrypt(messageType, []byte(args[0]))
			if err != nil {
				return err
			}
			if err := saveSession(sessionID, s); err != nil {
				return err
			}
			fmt.Printf("%s\n", plaintext)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (hex)")
	cmd.Flags().StringVar(&typeArg, "type", "message", "message type: pre-key or message")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}
