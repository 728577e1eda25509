package main

import (
	"os"

	"github.com/jose/sera/backend/cmd/sera/commands"
)

// main is the entry point for the SERA CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
