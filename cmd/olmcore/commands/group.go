package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"olmcore/internal/crypto"
	"olmcore/internal/group"
)

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Group session operations",
	}
	cmd.AddCommand(groupCreateCmd(), groupSendCmd(), groupJoinCmd(), groupRecvCmd())
	return cmd
}

func groupCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sender group session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			s, err := group.NewOutbound(nil)
			if err != nil {
				return err
			}
			if err := saveOutboundGroup(name, s); err != nil {
				return err
			}
			fmt.Printf("session key: %s\nmessage index: %d\nsigning key: %s\n",
				s.SessionKey(), s.MessageIndex(), crypto.Base64Encode(s.SigningPublicKey().Slice()))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "local name for the group session")
	return cmd
}

func groupSendCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Encrypt a group message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadOutboundGroup(name)
			if err != nil {
				return err
			}
			message, err := s.Encrypt([]byte(args[0]))
			if err != nil {
				return err
			}
			if err := saveOutboundGroup(name, s); err != nil {
				return err
			}
			fmt.Printf("%s\n", message)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "local name for the group session")
	return cmd
}

func groupJoinCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "join <session-key> <message-index>",
		Short: "Create a receiver group session from a shared session key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			index, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("message index: %w", err)
			}
			s, err := group.NewInbound([]byte(args[0]), uint32(index))
			if err != nil {
				return err
			}
			if err := saveInboundGroup(name, s); err != nil {
				return err
			}
			fmt.Printf("joined at index %d\n", s.FirstKnownIndex())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "local name for the group session")
	return cmd
}

func groupRecvCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "recv <message>",
		Short: "Decrypt a group message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadInboundGroup(name)
			if err != nil {
				return err
			}
			plaintext, index, err := s.Decrypt([]byte(args[0]))
			if err != nil {
				return err
			}
			if err := saveInboundGroup(name, s); err != nil {
				return err
			}
			fmt.Printf("[%d] %s\n", index, plaintext)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "local name for the group session")
	return cmd
}

// Outbound and inbound pickles share the store namespace; the prefix keeps
// a sender and receiver session under the same name apart.

func saveOutboundGroup(name string, s *group.OutboundGroupSession) error {
	pickled, err := s.Pickle(pickleKey())
	if err != nil {
		return err
	}
	return st.SaveGroupSessionPickle("out-"+name, pickled)
}

func loadOutboundGroup(name string) (*group.OutboundGroupSession, error) {
	if err := requirePassphrase(); err != nil {
		return nil, err
	}
	pickled, ok, err := st.LoadGroupSessionPickle("out-" + name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no sender group session %q", name)
	}
	return group.UnpickleOutbound(pickleKey(), pickled)
}

func saveInboundGroup(name string, s *group.InboundGroupSession) error {
	pickled, err := s.Pickle(pickleKey())
	if err != nil {
		return err
	}
	return st.SaveGroupSessionPickle("in-"+name, pickled)
}

func loadInboundGroup(name string) (*group.InboundGroupSession, error) {
	if err := requirePassphrase(); err != nil {
		return nil, err
	}
	pickled, ok, err := st.LoadGroupSessionPickle("in-" + name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no receiver group session %q", name)
	}
	return group.UnpickleInbound(pickleKey(), pickled)
}
