package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"dappkit/internal/crypto"
	domaintypes "dappkit/internal/domain/types"
)

func identityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Print the dApp identity keys, creating them on first use",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := wire.Identity.Get(cmd.Context(), domaintypes.IdentityKindDapp)
			if err != nil {
				return err
			}
			pub, err := hex.DecodeString(kp.X25519PublicKeyHex())
			if err != nil {
				return err
			}
			fmt.Printf("X25519:      %s\n", kp.X25519PublicKeyHex())
			fmt.Printf("Ed25519:     %s\n", kp.Ed25519PublicKeyHex())
			fmt.Printf("Fingerprint: %s\n", crypto.Fingerprint(pub))
			return nil
		},
	}
}
