package main

import (
	"github.com/spf13/cobra"
)

// buildInvokeCmd creates the "invoke" command: runs exactly one turn
// through the orchestrator and prints its output.
func buildInvokeCmd() *cobra.Command {
	var (
		configPath     string
		conversationID string
		traceID        string
	)

	cmd := &cobra.Command{
		Use:   "invoke [input text]",
		Short: "Run a single turn through the orchestrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd, configPath, conversationID, traceID, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&conversationID, "conversation-id", "", "Conversation ID (generated if omitted)")
	cmd.Flags().StringVar(&traceID, "trace-id", "", "Trace ID (generated if omitted)")

	return cmd
}
