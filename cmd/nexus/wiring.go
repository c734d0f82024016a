package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/haasonsaas/turnruntime/internal/config"
	"github.com/haasonsaas/turnruntime/internal/memory"
	"github.com/haasonsaas/turnruntime/internal/modelbackend"
	"github.com/haasonsaas/turnruntime/internal/modelbackend/anthropic"
	"github.com/haasonsaas/turnruntime/internal/modelbackend/openai"
	"github.com/haasonsaas/turnruntime/internal/observability"
	"github.com/haasonsaas/turnruntime/internal/orchestrator"
	"github.com/haasonsaas/turnruntime/internal/toolbox"
	"github.com/haasonsaas/turnruntime/internal/toolbox/catalog"
	"github.com/haasonsaas/turnruntime/internal/toolbox/websearch"
	"github.com/haasonsaas/turnruntime/internal/tracing"
)

const defaultConfigPath = "turnruntime.yaml"

// runtime bundles the constructed boundaries a command needs, so commands
// can close what they opened without duplicating teardown logic.
type runtime struct {
	cfg           *config.Config
	logger        *observability.Logger
	memory        memory.Backend
	model         modelbackend.Backend
	registry      *toolbox.Registry
	tracer        tracing.Tracer
	orchestrator  *orchestrator.Orchestrator
	shutdownTrace func(context.Context) error
}

func (r *runtime) Close() {
	if r.memory != nil {
		_ = r.memory.Close()
	}
	if r.shutdownTrace != nil {
		_ = r.shutdownTrace(context.Background())
	}
}

// buildRuntime loads config and wires every boundary the core packages need.
// Backend *selection* (which memory backend, which tracer, which model
// provider) lives here, never inside internal/orchestrator itself — the
// core packages only ever see an already-constructed interface value.
func buildRuntime(configPath string) (*runtime, error) {
	cfg, err := config.Load(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	memBackend, err := memory.NewBackend(cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("build memory backend: %w", err)
	}

	modelBackend, err := buildModelBackend(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("build model backend: %w", err)
	}

	tracer, shutdownTrace, err := buildTracer(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("build tracer: %w", err)
	}

	registry := buildToolRegistry(cfg)

	orch := orchestrator.New(cfg.Guardrails, orchestrator.Dependencies{
		MemoryBackend: memBackend,
		ModelBackend:  modelBackend,
		Registry:      registry,
		Tracer:        tracer,
	})

	return &runtime{
		cfg:           cfg,
		logger:        logger,
		memory:        memBackend,
		model:         modelBackend,
		registry:      registry,
		tracer:        tracer,
		orchestrator:  orch,
		shutdownTrace: shutdownTrace,
	}, nil
}

// buildModelBackend picks the default provider from cfg.DefaultProvider,
// falling back through cfg.FallbackChain to the first provider with a
// usable API key. The model-backend contract is a single synchronous
// Generate call, so "fallback" here means "which one concrete Backend
// gets wired in," not runtime failover between calls — the orchestrator's
// model-call node talks to exactly one Backend per turn.
func buildModelBackend(cfg config.ModelConfig) (modelbackend.Backend, error) {
	order := append([]string{cfg.DefaultProvider}, cfg.FallbackChain...)
	var lastErr error
	for _, name := range order {
		name = strings.ToLower(strings.TrimSpace(name))
		providerCfg, ok := cfg.Providers[name]
		if !ok || providerCfg.APIKey == "" {
			continue
		}
		switch name {
		case "anthropic":
			return anthropic.New(anthropic.Config{
				APIKey:  providerCfg.APIKey,
				BaseURL: providerCfg.BaseURL,
				Model:   providerCfg.DefaultModel,
			})
		case "openai":
			return openai.New(openai.Config{
				APIKey:  providerCfg.APIKey,
				BaseURL: providerCfg.BaseURL,
				Model:   providerCfg.DefaultModel,
			})
		default:
			lastErr = fmt.Errorf("unknown model provider %q", name)
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no model provider configured with a usable api_key")
}

// buildTracer returns the selected tracer plus its shutdown func, if any.
// Only the otel backend has real resources to flush on exit; the other
// backends return a nil shutdown func and runtime.Close treats that as a
// no-op.
func buildTracer(cfg config.TracingConfig) (tracing.Tracer, func(context.Context) error, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", "noop":
		return tracing.NewNoopTracer(), nil, nil
	case "jsonl":
		alarm := tracing.NewAlarm(nil, nil)
		jsonlTracer, err := tracing.NewJSONLTracer(cfg.JSONL.Path, alarm)
		return jsonlTracer, nil, err
	case "otel":
		obsTracer, shutdown := observability.NewTracer(observability.TraceConfig{
			ServiceName:    cfg.OTel.ServiceName,
			Endpoint:       cfg.OTel.Endpoint,
			EnableInsecure: cfg.OTel.Insecure,
		})
		alarm := tracing.NewAlarm(nil, nil)
		return tracing.NewOTelTracer(obsTracer, alarm), shutdown, nil
	default:
		return nil, nil, fmt.Errorf("unknown tracing backend %q", cfg.Backend)
	}
}

func buildToolRegistry(cfg *config.Config) *toolbox.Registry {
	registry := toolbox.NewRegistry()

	creds := webSearchCredentials(cfg)
	if creds.ActiveProvider() != "" {
		registry.Register(websearch.NewTool(websearch.NewClient(creds)))
	}

	registry.Register(catalog.NewCurrentTimeTool())
	registry.Register(catalog.NewUnitConvertTool())

	return registry
}

// webSearchCredentials bridges config.WebSearchProviderConfig's name/key
// list onto websearch.Credentials' flat per-provider fields. Shared by
// buildToolRegistry and the doctor command, which both need the same
// mapping without both needing to register a tool.
func webSearchCredentials(cfg *config.Config) websearch.Credentials {
	creds := websearch.Credentials{}
	for _, p := range cfg.Tools.WebSearch.Providers {
		switch strings.ToLower(strings.TrimSpace(p.Name)) {
		case "exa":
			creds.ExaAPIKey = p.APIKey
		case "brave":
			creds.BraveAPIKey = p.APIKey
		case "linkup":
			creds.LinkupAPIKey = p.APIKey
		}
	}
	return creds
}

func resolveConfigPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		if env := strings.TrimSpace(os.Getenv("TURNRUNTIME_CONFIG")); env != "" {
			return env
		}
		return defaultConfigPath
	}
	return path
}

func newIDIfEmpty(id string) string {
	if id != "" {
		return id
	}
	return newUUID()
}
