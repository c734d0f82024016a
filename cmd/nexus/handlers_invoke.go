package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// runInvoke wires a runtime from config, resolves any missing IDs (the
// orchestrator itself never does), and prints the turn's final output
// plus its status and IDs.
func runInvoke(cmd *cobra.Command, configPath, conversationID, traceID, rawInput string) error {
	rt, err := buildRuntime(configPath)
	if err != nil {
		return fmt.Errorf("invoke: %w", err)
	}
	defer rt.Close()

	conversationID = newIDIfEmpty(conversationID)
	traceID = newIDIfEmpty(traceID)

	result := rt.orchestrator.Invoke(context.Background(), rawInput, conversationID, traceID)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Output)
	fmt.Fprintf(out, "status=%s conversation_id=%s trace_id=%s\n", result.Status, result.ConversationID, result.TraceID)
	return nil
}
