// Package main provides the draftloom CLI.
//
// Usage:
//
//	draftloom [flags] <command> [args]
//
// Commands:
//
//	chat     - Run one multi-model turn against the backend
//	job      - Drive a long-form generation job (run, resume)
//	cache    - Inspect the local draft metadata cache (show, clear)
//	config   - Configuration management
//	version  - Print version information
//
// Configuration:
//
//	The CLI stores configuration under the user config dir
//	(e.g. ~/.config/draftloom/config.yaml) and supports multiple
//	contexts. Use 'draftloom config' commands to manage them.
package main

import (
	"fmt"
	"os"

	"github.com/draftloom/draftloom/cmd/draftloom/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
