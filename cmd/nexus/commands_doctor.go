package main

import (
	"github.com/spf13/cobra"
)

// buildDoctorCmd creates the "doctor" command: a connectivity self-test
// that reports which search provider is active and whether the configured
// backends respond, without making a search request or a model call.
func buildDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report configured search provider and backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
