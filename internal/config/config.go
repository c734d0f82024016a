package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for the turn runtime.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Logging    LoggingConfig   `yaml:"logging"`
	Auth       AuthConfig      `yaml:"auth"`
	Guardrails GuardrailConfig `yaml:"guardrails"`
	Memory     MemoryConfig    `yaml:"memory"`
	Model      ModelConfig     `yaml:"model"`
	Tracing    TracingConfig   `yaml:"tracing"`
	Tools      ToolsConfig     `yaml:"tools"`
	WhatsApp   WhatsAppConfig  `yaml:"whatsapp"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	HTTPPort    int    `yaml:"http_port"`
	MetricsPort int    `yaml:"metrics_port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

type APIKeyConfig struct {
	Key    string `yaml:"key"`
	UserID string `yaml:"user_id"`
	Name   string `yaml:"name"`
}

// GuardrailConfig carries config-overridable values for the fixed guardrail
// constants. A zero/nil field falls back to the documented default.
type GuardrailConfig struct {
	MaxToolCallsPerTurn    int           `yaml:"max_tool_calls_per_turn"`
	MaxResults             int           `yaml:"max_results"`
	MaxSnippetLen          int           `yaml:"max_snippet_len"`
	MaxTotalChars          int           `yaml:"max_total_chars"`
	MaxToolContextChars    int           `yaml:"max_tool_context_chars"`
	MaxMemoryContextChars  int           `yaml:"max_memory_context_chars"`
	MaxCombinedInjectChars int           `yaml:"max_combined_inject_chars"`
	MaxNodeVisitsPerTurn   int           `yaml:"max_node_visits_per_turn"`
	ToolCallTimeout        time.Duration `yaml:"tool_call_timeout"`
}

// MemoryConfig selects and configures the short-term memory boundary backend.
type MemoryConfig struct {
	// Backend is "disabled", "inmemory", "sqlite", or "postgres". Defaults to "inmemory".
	Backend  string         `yaml:"backend"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ModelConfig selects the default model backend and its provider credentials.
type ModelConfig struct {
	DefaultProvider string                      `yaml:"default_provider"`
	Providers       map[string]ModelProviderCfg `yaml:"providers"`
	// FallbackChain lists provider IDs to try in order if the default fails.
	FallbackChain []string `yaml:"fallback_chain"`
}

type ModelProviderCfg struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
}

// TracingConfig selects the tracer backend used by the orchestrator.
type TracingConfig struct {
	// Backend is "noop", "jsonl", or "otel". Defaults to "noop".
	Backend string           `yaml:"backend"`
	JSONL   JSONLTracerCfg   `yaml:"jsonl"`
	OTel    OTelTracerConfig `yaml:"otel"`
}

type JSONLTracerCfg struct {
	Path string `yaml:"path"`
}

type OTelTracerConfig struct {
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Insecure    bool    `yaml:"insecure"`
}

type ToolsConfig struct {
	WebSearch WebSearchConfig `yaml:"websearch"`
}

// WebSearchConfig lists web-search providers in credential-priority order.
// At construction time the registry picks the first provider with a
// non-empty APIKey; ties are broken by list order.
type WebSearchConfig struct {
	Providers []WebSearchProviderConfig `yaml:"providers"`
	Timeout   time.Duration             `yaml:"timeout"`
}

type WebSearchProviderConfig struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// WhatsAppConfig is the YAML-facing shape of the whatsapp channel's
// configuration. It is a plain data mirror of whatsapp.Config rather than a
// direct reference to it, so this package never imports a channel package —
// cmd/nexus converts one into the other when it wires the transport up.
type WhatsAppConfig struct {
	Enabled       bool   `yaml:"enabled"`
	SessionPath   string `yaml:"session_path"`
	MediaPath     string `yaml:"media_path"`
	WebhookPath   string `yaml:"webhook_path"`
	WebhookSecret string `yaml:"webhook_secret"`
	VerifyToken   string `yaml:"verify_token"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: expected single document")
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
	applyGuardrailDefaults(&cfg.Guardrails)
	applyMemoryDefaults(&cfg.Memory)
	applyModelDefaults(&cfg.Model)
	applyTracingDefaults(&cfg.Tracing)
	applyWebSearchDefaults(&cfg.Tools.WebSearch)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9090
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
}

// applyGuardrailDefaults fills in the documented default for every
// guardrail constant left unset in config.
func applyGuardrailDefaults(cfg *GuardrailConfig) {
	if cfg.MaxToolCallsPerTurn == 0 {
		cfg.MaxToolCallsPerTurn = 1
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 5
	}
	if cfg.MaxSnippetLen == 0 {
		cfg.MaxSnippetLen = 300
	}
	if cfg.MaxTotalChars == 0 {
		cfg.MaxTotalChars = 1500
	}
	if cfg.MaxToolContextChars == 0 {
		cfg.MaxToolContextChars = 2048
	}
	if cfg.MaxMemoryContextChars == 0 {
		cfg.MaxMemoryContextChars = 2048
	}
	if cfg.MaxCombinedInjectChars == 0 {
		cfg.MaxCombinedInjectChars = 1500
	}
	if cfg.MaxNodeVisitsPerTurn == 0 {
		cfg.MaxNodeVisitsPerTurn = 25
	}
	if cfg.ToolCallTimeout == 0 {
		cfg.ToolCallTimeout = 10 * time.Second
	}
}

func applyMemoryDefaults(cfg *MemoryConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "inmemory"
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "turnruntime-memory.db"
	}
}

func applyModelDefaults(cfg *ModelConfig) {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = "anthropic"
	}
}

func applyTracingDefaults(cfg *TracingConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "noop"
	}
	if cfg.Backend == "jsonl" && cfg.JSONL.Path == "" {
		cfg.JSONL.Path = "turnruntime-trace.jsonl"
	}
	if cfg.Backend == "otel" {
		if cfg.OTel.ServiceName == "" {
			cfg.OTel.ServiceName = "turnruntime"
		}
		if cfg.OTel.SampleRatio == 0 {
			cfg.OTel.SampleRatio = 1.0
		}
	}
}

func applyWebSearchDefaults(cfg *WebSearchConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if value := strings.TrimSpace(os.Getenv("TURNRUNTIME_HOST")); value != "" {
		cfg.Server.Host = value
	}
	if value := strings.TrimSpace(os.Getenv("TURNRUNTIME_HTTP_PORT")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Server.HTTPPort = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("TURNRUNTIME_METRICS_PORT")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Server.MetricsPort = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); value != "" {
		if cfg.Model.Providers == nil {
			cfg.Model.Providers = map[string]ModelProviderCfg{}
		}
		entry := cfg.Model.Providers["anthropic"]
		entry.APIKey = value
		cfg.Model.Providers["anthropic"] = entry
	}
	if value := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); value != "" {
		if cfg.Model.Providers == nil {
			cfg.Model.Providers = map[string]ModelProviderCfg{}
		}
		entry := cfg.Model.Providers["openai"]
		entry.APIKey = value
		cfg.Model.Providers["openai"] = entry
	}
}

type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var issues []string

	if cfg.Guardrails.MaxToolCallsPerTurn < 0 {
		issues = append(issues, "guardrails.max_tool_calls_per_turn must be >= 0")
	}
	if cfg.Guardrails.MaxResults < 0 {
		issues = append(issues, "guardrails.max_results must be >= 0")
	}
	if cfg.Guardrails.MaxSnippetLen < 0 {
		issues = append(issues, "guardrails.max_snippet_len must be >= 0")
	}
	if cfg.Guardrails.MaxTotalChars < 0 {
		issues = append(issues, "guardrails.max_total_chars must be >= 0")
	}
	if cfg.Guardrails.MaxToolContextChars < 0 {
		issues = append(issues, "guardrails.max_tool_context_chars must be >= 0")
	}
	if cfg.Guardrails.MaxMemoryContextChars < 0 {
		issues = append(issues, "guardrails.max_memory_context_chars must be >= 0")
	}
	if cfg.Guardrails.MaxCombinedInjectChars < 0 {
		issues = append(issues, "guardrails.max_combined_inject_chars must be >= 0")
	}
	if cfg.Guardrails.MaxNodeVisitsPerTurn < 1 {
		issues = append(issues, "guardrails.max_node_visits_per_turn must be >= 1")
	}
	if cfg.Guardrails.ToolCallTimeout < 0 {
		issues = append(issues, "guardrails.tool_call_timeout must be >= 0")
	}

	if !validMemoryBackend(cfg.Memory.Backend) {
		issues = append(issues, "memory.backend must be \"disabled\", \"inmemory\", \"sqlite\", or \"postgres\"")
	}
	if cfg.Memory.Backend == "sqlite" && strings.TrimSpace(cfg.Memory.SQLite.Path) == "" {
		issues = append(issues, "memory.sqlite.path is required when memory.backend is \"sqlite\"")
	}
	if cfg.Memory.Backend == "postgres" && strings.TrimSpace(cfg.Memory.Postgres.DSN) == "" {
		issues = append(issues, "memory.postgres.dsn is required when memory.backend is \"postgres\"")
	}

	defaultProvider := strings.ToLower(strings.TrimSpace(cfg.Model.DefaultProvider))
	if defaultProvider != "" {
		if _, ok := cfg.Model.Providers[defaultProvider]; !ok {
			if _, ok := cfg.Model.Providers[cfg.Model.DefaultProvider]; !ok {
				issues = append(issues, fmt.Sprintf("model.providers missing entry for default_provider %q", cfg.Model.DefaultProvider))
			}
		}
	}

	if !validTracingBackend(cfg.Tracing.Backend) {
		issues = append(issues, "tracing.backend must be \"noop\", \"jsonl\", or \"otel\"")
	}
	if cfg.Tracing.Backend == "jsonl" && strings.TrimSpace(cfg.Tracing.JSONL.Path) == "" {
		issues = append(issues, "tracing.jsonl.path is required when tracing.backend is \"jsonl\"")
	}
	if cfg.Tracing.OTel.SampleRatio < 0 || cfg.Tracing.OTel.SampleRatio > 1 {
		issues = append(issues, "tracing.otel.sample_ratio must be between 0 and 1")
	}

	for i, provider := range cfg.Tools.WebSearch.Providers {
		if strings.TrimSpace(provider.Name) == "" {
			issues = append(issues, fmt.Sprintf("tools.websearch.providers[%d].name is required", i))
		}
	}
	if cfg.Tools.WebSearch.Timeout < 0 {
		issues = append(issues, "tools.websearch.timeout must be >= 0")
	}

	seenKeys := map[string]struct{}{}
	for i, entry := range cfg.Auth.APIKeys {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			issues = append(issues, fmt.Sprintf("auth.api_keys[%d].key must be set", i))
			continue
		}
		if _, ok := seenKeys[key]; ok {
			issues = append(issues, fmt.Sprintf("auth.api_keys[%d].key must be unique", i))
		} else {
			seenKeys[key] = struct{}{}
		}
	}

	if cfg.WhatsApp.Enabled {
		if strings.TrimSpace(cfg.WhatsApp.SessionPath) == "" && strings.TrimSpace(cfg.WhatsApp.WebhookPath) == "" {
			issues = append(issues, "whatsapp.session_path or whatsapp.webhook_path is required when whatsapp is enabled")
		}
		if strings.TrimSpace(cfg.WhatsApp.WebhookPath) != "" && strings.TrimSpace(cfg.WhatsApp.WebhookSecret) == "" {
			issues = append(issues, "whatsapp.webhook_secret is required when whatsapp.webhook_path is set")
		}
	}

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}

	return nil
}

func validMemoryBackend(backend string) bool {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "disabled", "inmemory", "sqlite", "postgres":
		return true
	default:
		return false
	}
}

func validTracingBackend(backend string) bool {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "noop", "jsonl", "otel":
		return true
	default:
		return false
	}
}
