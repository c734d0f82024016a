package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/turnruntime/internal/health"
)

// runDoctor reports which web-search provider is active (priority order
// Exa → Brave → Linkup, per websearch.Credentials.ActiveProvider) and
// whether the configured memory and model backends respond, all without
// making a search request or a real model call.
func runDoctor(cmd *cobra.Command, configPath string) error {
	rt, err := buildRuntime(configPath)
	if err != nil {
		return fmt.Errorf("doctor: %w", err)
	}
	defer rt.Close()

	out := cmd.OutOrStdout()

	active := webSearchCredentials(rt.cfg).ActiveProvider()
	if active == "" {
		fmt.Fprintln(out, "search provider: none configured")
	} else {
		fmt.Fprintf(out, "search provider: %s (active)\n", active)
	}

	checker := health.New(rt.memory, rt.model, time.Now())
	report := checker.Ready(context.Background())
	fmt.Fprintf(out, "memory backend: %s\n", orUnknown(report.MemoryBackend))
	fmt.Fprintf(out, "model backend: %s\n", orUnknown(report.ModelBackend))
	fmt.Fprintf(out, "overall: %s\n", report.Status)

	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
