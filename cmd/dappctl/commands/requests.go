package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dappkit/internal/domain"
)

func requestsCmd() *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List recorded wallet requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				items []domain.RequestItem
				err   error
			)
			if pendingOnly {
				items, err = wire.Ledger.GetPending(cmd.Context())
			} else {
				items, err = wire.Ledger.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println("No requests")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tCREATED\tDETAIL")
			for _, it := range items {
				detail := it.TransactionIntentHash
				if it.Error != "" {
					detail = string(it.Error)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					it.InteractionID, it.Type, it.Status,
					time.UnixMilli(it.CreatedAt).Format(time.RFC3339), detail)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only requests still waiting on the wallet")
	return cmd
}
