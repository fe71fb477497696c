package main

import (
	"os"

	"dappkit/cmd/dappctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
