// Package main provides the CLI entry point for the turn runtime: a thin
// inspection and transport-hosting shell around internal/orchestrator.
//
// # Basic usage
//
// Run one turn against a configured model and memory backend:
//
//	nexus invoke --config turnruntime.yaml "what's the weather in Boston?"
//
// Check which search-provider credentials are configured without making a
// request:
//
//	nexus doctor --config turnruntime.yaml
//
// Host the WhatsApp transport and health endpoints:
//
//	nexus serve --config turnruntime.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached,
// separated from main() so tests can exercise it without a process exit.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "nexus",
		Short:        "Turn runtime — invoke, inspect, and host a conversational agent",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildInvokeCmd(),
		buildDoctorCmd(),
		buildServeCmd(),
	)

	return rootCmd
}
