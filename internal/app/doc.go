// Package app loads the dappctl profile and wires every store, service,
// transport and client into a Wire that commands share.
package app
