package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func txStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tx-status <intent-hash>",
		Short: "Ask the gateway for a transaction's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := wire.Gateway.TransactionStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", res.Status)
			if res.ErrorMessage != "" {
				fmt.Printf("Error:  %s\n", res.ErrorMessage)
			}
			return nil
		},
	}
}

func subintentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subintent-status <subintent-hash>",
		Short: "Ask the gateway whether a subintent was committed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := wire.Gateway.SubintentStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", res.SubintentStatus)
			if res.FinalizedAtTransactionIntentHash != "" {
				fmt.Printf("Parent: %s\n", res.FinalizedAtTransactionIntentHash)
			}
			return nil
		},
	}
}
