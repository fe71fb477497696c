// Package commands defines the dappctl CLI and wires dependencies for subcommands.
//
// Commands
//
//   - identity          Print the dApp key pair and its fingerprint
//   - session           Show or clear the relay session
//   - requests          List the request ledger
//   - connect           Ask the wallet for accounts, a persona or proofs
//   - send-tx           Send a transaction manifest and wait for commit
//   - pre-auth          Ask the wallet to sign a subintent
//   - tx-status         Query the gateway for a transaction
//   - subintent-status  Query the gateway for a subintent
//   - disconnect        Cancel open requests and clear the profile
//
// The TOML profile passed with --config must set at least
// dapp_definition_address and origin.
//
// # Implementation
//
// The root command loads the TOML profile, builds the app.Wire and starts its
// loops before any subcommand runs, and closes it afterwards. On mobile the
// wallet is reached through the relay and deep links are printed.
package commands
