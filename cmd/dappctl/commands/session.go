package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or clear the relay session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				if err := wire.Sessions.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("Session cleared")
				return nil
			}
			s, err := wire.Sessions.GetCurrentSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Session: %s\n", s.SessionID)
			if s.IsLinked() {
				fmt.Printf("Wallet:  %s\n", s.WalletPublicKey)
			} else {
				fmt.Println("Wallet:  not linked")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "drop the session so the next request starts a new one")
	return cmd
}
