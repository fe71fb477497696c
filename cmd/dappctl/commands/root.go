package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"dappkit/internal/app"
	"dappkit/internal/crypto"
	"dappkit/internal/logging"
)

var (
	home       string
	configPath string
	passphrase string
	mobile     bool

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:          "dappctl",
		Short:        "Talk to a wallet from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := app.DefaultHome()
				if err != nil {
					return err
				}
				home = dir
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			cfg := app.DefaultConfig(home)
			if configPath != "" {
				var err error
				if cfg, err = app.LoadConfig(configPath, cfg); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("mobile") {
				cfg.Mobile = mobile
			}
			if passphrase != "" {
				cfg.Passphrase = passphrase
			}

			logger := logging.New("dappctl", logging.ProfileCLI, os.Stderr)
			w, err := app.NewWire(cmd.Context(), cfg,
				app.WithLogger(logger),
				app.WithChallengeGenerator(crypto.NewChallenge),
				app.WithOpener(printLink))
			if err != nil {
				return err
			}
			if err := w.Start(cmd.Context()); err != nil {
				_ = w.Close()
				return err
			}
			wire = w
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "profile dir (default ~/.dappkit)")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML profile to load")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase sealing stored values")
	root.PersistentFlags().BoolVar(&mobile, "mobile", false, "reach the wallet through the relay")

	root.AddCommand(
		identityCmd(),
		sessionCmd(),
		requestsCmd(),
		txStatusCmd(),
		subintentStatusCmd(),
		connectCmd(),
		sendTxCmd(),
		preAuthCmd(),
		disconnectCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := root.ExecuteContext(ctx)
	if wire != nil {
		err = errors.Join(err, wire.Close())
	}
	return err
}

// printLink stands in for a browser: deep links are printed for the user to
// open on the phone.
func printLink(_ context.Context, url string) error {
	fmt.Printf("Open in wallet: %s\n", url)
	return nil
}
