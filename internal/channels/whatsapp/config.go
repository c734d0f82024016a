// Package whatsapp is the runtime's one collaborator-layer transport: a
// WhatsApp channel that turns inbound messages into turns and turn output
// back into WhatsApp messages. It sits outside the core graph entirely —
// the core never imports this package.
package whatsapp

import "fmt"

// Config holds WhatsApp transport configuration.
type Config struct {
	// Enabled controls whether the transport is started.
	Enabled bool `yaml:"enabled"`

	// SessionPath is the SQLite database path used for whatsmeow's
	// multi-device session store.
	SessionPath string `yaml:"session_path"`

	// MediaPath is the directory downloaded media attachments are written
	// to before their path is carried as the turn's media_url.
	MediaPath string `yaml:"media_path"`

	// WebhookPath, when set, additionally exposes an HTTP handler that
	// accepts inbound messages as signed webhook payloads instead of (or
	// alongside) the direct whatsmeow session. This is the ingestion path
	// used by deployments that front WhatsApp through a provider-managed
	// webhook rather than a device pairing.
	WebhookPath string `yaml:"webhook_path"`

	// WebhookSecret is the HMAC-SHA256 secret used to verify
	// X-Hub-Signature-256 on inbound webhook requests.
	WebhookSecret string `yaml:"webhook_secret"`
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SessionPath == "" && c.WebhookPath == "" {
		return fmt.Errorf("whatsapp: session_path or webhook_path is required when enabled")
	}
	if c.WebhookPath != "" && c.WebhookSecret == "" {
		return fmt.Errorf("whatsapp: webhook_secret is required when webhook_path is set")
	}
	return nil
}
