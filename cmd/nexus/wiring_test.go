package main

import (
	"testing"

	"github.com/haasonsaas/turnruntime/internal/config"
	"github.com/haasonsaas/turnruntime/internal/modelbackend/anthropic"
	"github.com/haasonsaas/turnruntime/internal/modelbackend/openai"
)

func TestBuildModelBackendPrefersDefaultProvider(t *testing.T) {
	backend, err := buildModelBackend(config.ModelConfig{
		DefaultProvider: "anthropic",
		Providers: map[string]config.ModelProviderCfg{
			"anthropic": {APIKey: "test-key"},
			"openai":    {APIKey: "test-key"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := backend.(*anthropic.Backend); !ok {
		t.Fatalf("expected an anthropic backend, got %T", backend)
	}
}

func TestBuildModelBackendFallsBackWhenDefaultLacksCredentials(t *testing.T) {
	backend, err := buildModelBackend(config.ModelConfig{
		DefaultProvider: "anthropic",
		FallbackChain:   []string{"openai"},
		Providers: map[string]config.ModelProviderCfg{
			"openai": {APIKey: "test-key"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := backend.(*openai.Backend); !ok {
		t.Fatalf("expected an openai backend, got %T", backend)
	}
}

func TestBuildModelBackendErrorsWhenNoProviderConfigured(t *testing.T) {
	_, err := buildModelBackend(config.ModelConfig{DefaultProvider: "anthropic"})
	if err == nil {
		t.Fatal("expected an error when no provider has credentials")
	}
}

func TestBuildTracerDefaultsToNoop(t *testing.T) {
	tracer, shutdown, err := buildTracer(config.TracingConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracer == nil {
		t.Fatal("expected a non-nil tracer")
	}
	if shutdown != nil {
		t.Fatal("expected no shutdown func for the noop tracer")
	}
}

func TestBuildTracerRejectsUnknownBackend(t *testing.T) {
	_, _, err := buildTracer(config.TracingConfig{Backend: "bogus"})
	if err == nil {
		t.Fatal("expected an error for an unknown tracing backend")
	}
}

func TestBuildToolRegistryAlwaysIncludesCatalogTools(t *testing.T) {
	registry := buildToolRegistry(&config.Config{})
	if _, ok := registry.Lookup("current_time"); !ok {
		t.Fatal("expected current_time tool to be registered")
	}
	if _, ok := registry.Lookup("unit_convert"); !ok {
		t.Fatal("expected unit_convert tool to be registered")
	}
	if _, ok := registry.Lookup("web_search"); ok {
		t.Fatal("expected web_search to be absent without configured credentials")
	}
}
