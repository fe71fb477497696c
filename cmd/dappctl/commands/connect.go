package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dappkit/internal/datarequest"
	"dappkit/internal/domain"
	"dappkit/internal/walletrequest"
)

func connectCmd() *cobra.Command {
	var (
		accounts int
		persona  bool
		proof    bool
		oneTime  bool
		linkOnly bool
	)
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Request accounts and an optional persona login from the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if linkOnly {
				link, err := wire.Mobile.ShowQRCode(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println(link)
				return nil
			}

			var items []datarequest.Item
			if accounts > 0 {
				b := datarequest.Accounts().AtLeast(accounts)
				if proof {
					b = b.WithProof()
				}
				items = append(items, b)
			}
			if persona && !oneTime {
				p := datarequest.Persona()
				if proof {
					p = p.WithProof()
				}
				items = append(items, p)
			}
			req := datarequest.Build(items...)

			data, err := wire.Requests.SendRequest(cmd.Context(), walletrequest.RequestInput{
				Request: &req,
				OneTime: oneTime,
			})
			if err != nil {
				return err
			}
			printWalletData(data)
			return nil
		},
	}
	cmd.Flags().IntVar(&accounts, "accounts", 1, "minimum number of accounts to ask for")
	cmd.Flags().BoolVar(&persona, "persona", false, "also ask for a persona login")
	cmd.Flags().BoolVar(&proof, "proof", false, "ask the wallet to sign a challenge")
	cmd.Flags().BoolVar(&oneTime, "one-time", false, "do not keep the shared data")
	cmd.Flags().BoolVar(&linkOnly, "link", false, "print a wallet link for the relay session and exit")
	return cmd
}

func printWalletData(d domain.WalletData) {
	if d.Persona != nil {
		fmt.Printf("Persona: %s (%s)\n", d.Persona.Label, d.Persona.IdentityAddress)
	}
	for _, a := range d.Accounts {
		fmt.Printf("Account: %s (%s)\n", a.Address, a.Label)
	}
	if len(d.Proofs) > 0 {
		fmt.Printf("Proofs:  %d\n", len(d.Proofs))
	}
}
