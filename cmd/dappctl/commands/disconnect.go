package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Cancel open requests and forget the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Requests.Disconnect(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Disconnected")
			return nil
		},
	}
}
