// Package main is the entry point for the zmachine web server.
package main

import (
	"os"

	"github.com/zmachine-ai/zmachine-web/cmd/zmachine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
