package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/turnruntime/internal/channels/whatsapp"
	"github.com/haasonsaas/turnruntime/internal/health"
)

// runServe hosts the WhatsApp transport (if enabled) and the liveness/
// readiness HTTP endpoints until interrupted. Neither of these is part of
// the core graph — this command is the transport shim, the one place
// conversation IDs get minted for inbound messages that don't already
// carry one.
func runServe(cmd *cobra.Command, configPath string) error {
	rt, err := buildRuntime(configPath)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	checker := health.New(rt.memory, rt.model, startedAt)
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", healthHandler(func() health.Report { return checker.Live() }))
	mux.HandleFunc("/health/ready", healthHandler(func() health.Report { return checker.Ready(ctx) }))

	server := &http.Server{Addr: fmt.Sprintf(":%d", rt.cfg.Server.HTTPPort), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(cmd.ErrOrStderr(), "health server stopped: %v\n", err)
		}
	}()
	defer server.Shutdown(context.Background())

	waLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if rt.cfg.WhatsApp.Enabled && rt.cfg.WhatsApp.WebhookPath != "" {
		webhookHandler := whatsapp.NewWebhookHandler(
			rt.cfg.WhatsApp.WebhookSecret, rt.cfg.WhatsApp.VerifyToken, turnHandler(rt), waLogger)
		mux.Handle(rt.cfg.WhatsApp.WebhookPath, webhookHandler)
	}

	if rt.cfg.WhatsApp.Enabled && rt.cfg.WhatsApp.SessionPath != "" {
		transport, err := whatsapp.New(whatsapp.Config{
			Enabled:     rt.cfg.WhatsApp.Enabled,
			SessionPath: rt.cfg.WhatsApp.SessionPath,
			MediaPath:   rt.cfg.WhatsApp.MediaPath,
		}, waLogger, turnHandler(rt))
		if err != nil {
			return fmt.Errorf("serve: build whatsapp transport: %w", err)
		}
		if err := transport.Start(ctx); err != nil {
			return fmt.Errorf("serve: start whatsapp transport: %w", err)
		}
		defer transport.Stop()
	}

	<-ctx.Done()
	return nil
}

// turnHandler adapts a runtime into a whatsapp.HandleFunc: each inbound
// message becomes one orchestrator turn. A conversation ID the transport
// couldn't supply is minted here, never inside the orchestrator.
func turnHandler(rt *runtime) whatsapp.HandleFunc {
	return func(ctx context.Context, conversationID, rawInput, inputType, mediaURL string) (string, error) {
		conversationID = newIDIfEmpty(conversationID)
		result := rt.orchestrator.Invoke(ctx, rawInput, conversationID, newUUID())
		return result.Output, nil
	}
}

func healthHandler(probe func() health.Report) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := probe()
		w.Header().Set("Content-Type", "application/json")
		if !report.Ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}
