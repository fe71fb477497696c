package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/walletrequest"
)

func sendTxCmd() *cobra.Command {
	var (
		message string
		blobs   []string
	)
	cmd := &cobra.Command{
		Use:   "send-tx <manifest-file|->",
		Short: "Send a transaction manifest to the wallet and wait for commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := readManifest(args[0])
			if err != nil {
				return err
			}
			res, err := wire.Requests.SendTransaction(cmd.Context(), walletrequest.TransactionInput{
				TransactionManifest: manifest,
				Blobs:               blobs,
				Message:             message,
				OnTransactionID: func(hash string) {
					fmt.Printf("Submitted: %s\n", hash)
				},
			})
			if err != nil {
				return err
			}
			fmt.Printf("Committed: %s (%s)\n", res.TransactionIntentHash, res.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message attached to the transaction")
	cmd.Flags().StringSliceVar(&blobs, "blob", nil, "hex blob referenced by the manifest (repeatable)")
	return cmd
}

func preAuthCmd() *cobra.Command {
	var (
		message     string
		blobs       []string
		expireAfter int64
		wait        bool
	)
	cmd := &cobra.Command{
		Use:   "pre-auth <subintent-manifest-file|->",
		Short: "Ask the wallet to pre-authorize a subintent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := readManifest(args[0])
			if err != nil {
				return err
			}
			res, err := wire.Requests.SendPreAuthorizationRequest(cmd.Context(), walletrequest.PreAuthorizationInput{
				SubintentManifest: manifest,
				Blobs:             blobs,
				Message:           message,
				Expiration: domaintypes.Expiration{
					Discriminator:      domaintypes.ExpireAfterDelay,
					ExpireAfterSeconds: expireAfter,
				},
				OnSubmittedSuccess: func(hash string) {
					fmt.Printf("Committed in: %s\n", hash)
				},
				WaitForCommit: wait,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Subintent: %s\n", res.SubintentHash)
			fmt.Printf("Expires:   %d\n", res.ExpirationTimestamp)
			fmt.Printf("Signed:    %s\n", res.SignedPartialTransaction)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message attached to the subintent")
	cmd.Flags().StringSliceVar(&blobs, "blob", nil, "hex blob referenced by the manifest (repeatable)")
	cmd.Flags().Int64Var(&expireAfter, "expire-after", walletrequest.DefaultPreAuthorizationExpiry, "seconds the signature stays valid once signed")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the subintent is committed")
	return cmd
}

// readManifest reads path, or stdin for "-".
func readManifest(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	m := strings.TrimSpace(string(b))
	if m == "" {
		return "", fmt.Errorf("manifest %s is empty", path)
	}
	return m, nil
}
