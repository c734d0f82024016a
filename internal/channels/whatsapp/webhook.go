package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// webhookPayload mirrors the subset of Meta's WhatsApp Cloud API webhook
// envelope this runtime cares about: a single message per delivery, nested
// three levels deep under entry/changes/value.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio struct {
		ID       string `json:"id"`
		MIMEType string `json:"mime_type"`
	} `json:"audio"`
	Image struct {
		ID       string `json:"id"`
		MIMEType string `json:"mime_type"`
	} `json:"image"`
}

// WebhookHandler is the alternate ingestion path for deployments that front
// WhatsApp through Meta's Cloud API rather than a paired whatsmeow device.
// It verifies the Meta HMAC signature, normalizes the payload into the
// core's raw_input/input_type/media_url triple, and hands it to the same
// HandleFunc a whatsmeow Transport would use.
type WebhookHandler struct {
	secret      string
	verifyToken string
	handle      HandleFunc
	logger      *slog.Logger
}

// NewWebhookHandler builds a WebhookHandler. secret is the app secret used
// to verify X-Hub-Signature-256; verifyToken is the hub.verify_token Meta
// echoes back during subscription setup.
func NewWebhookHandler(secret, verifyToken string, handle HandleFunc, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{secret: secret, verifyToken: verifyToken, handle: handle, logger: logger}
}

// ServeHTTP handles both Meta's GET subscription challenge and POST message
// delivery.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.serveChallenge(w, r)
	case http.MethodPost:
		h.serveMessage(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *WebhookHandler) serveChallenge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if q.Get("hub.verify_token") != h.verifyToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

func (h *WebhookHandler) serveMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !VerifySignature(h.secret, body, r.Header.Get("X-Hub-Signature-256")) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	msg, ok, err := parseWebhookPayload(body)
	if err != nil {
		h.logger.Error("whatsapp webhook payload invalid", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if !ok {
		// No message in this delivery (e.g. a status update) — acknowledge
		// and do nothing.
		w.WriteHeader(http.StatusOK)
		return
	}

	rawInput, inputType, mediaURL := normalizeWebhookMessage(msg)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	response, err := h.handle(ctx, msg.From, rawInput, inputType, mediaURL)
	if err != nil {
		h.logger.Error("whatsapp webhook turn failed", "conversation_id", msg.From, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	_ = response // sending the reply is the responsibility of a sender client, not this handler
	w.WriteHeader(http.StatusOK)
}

// VerifySignature checks the Meta HMAC-SHA256 signature on a webhook body.
// signatureHeader is the raw X-Hub-Signature-256 header value, including
// its "sha256=" prefix.
func VerifySignature(secret string, body []byte, signatureHeader string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}
	const prefix = "sha256="
	if !strings.HasPrefix(signatureHeader, prefix) {
		return false
	}
	expectedMAC := hmac.New(sha256.New, []byte(secret))
	expectedMAC.Write(body)
	expected := prefix + hex.EncodeToString(expectedMAC.Sum(nil))
	return hmac.Equal([]byte(signatureHeader), []byte(expected))
}

// parseWebhookPayload extracts the first message from a webhook delivery.
// ok is false when the delivery carries no message (status callbacks, for
// instance, are delivered through the same endpoint).
func parseWebhookPayload(body []byte) (webhookMessage, bool, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return webhookMessage{}, false, fmt.Errorf("whatsapp: decode webhook payload: %w", err)
	}
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				return change.Value.Messages[0], true, nil
			}
		}
	}
	return webhookMessage{}, false, nil
}

// normalizeWebhookMessage converts a webhook message into the core's
// raw_input/input_type/media_url triple. Audio and image messages never
// carry a browsable URL in Meta's payload either — only a media ID that
// must be resolved through a separate authenticated API call — so
// media_url here is a synthetic whatsapp:// reference the tool layer can
// later resolve, matching the no-inference-at-ingestion rule that also
// keeps raw_input empty for non-text messages.
func normalizeWebhookMessage(msg webhookMessage) (rawInput, inputType, mediaURL string) {
	switch msg.Type {
	case "text":
		return strings.TrimSpace(msg.Text.Body), "text", ""
	case "audio":
		return "", "audio", fmt.Sprintf("whatsapp://audio/%s", msg.Audio.ID)
	case "image":
		return "", "image", fmt.Sprintf("whatsapp://image/%s", msg.Image.ID)
	default:
		return "", "", ""
	}
}
