package main

import (
	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command: hosts the WhatsApp transport
// (when configured) and the liveness/readiness HTTP endpoints.
func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the configured transport and health endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
