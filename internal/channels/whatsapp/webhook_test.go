package whatsapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAccepts(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	sig := sign("shh", body)
	if !VerifySignature("shh", body, sig) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	sig := sign("shh", body)
	if VerifySignature("different", body, sig) {
		t.Fatal("expected signature mismatch to fail")
	}
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	sig := sign("shh", []byte(`{"entry":[]}`))
	if VerifySignature("shh", []byte(`{"entry":[1]}`), sig) {
		t.Fatal("expected tampered body to fail verification")
	}
}

func TestVerifySignatureRejectsMissingPrefix(t *testing.T) {
	body := []byte(`{}`)
	if VerifySignature("shh", body, "deadbeef") {
		t.Fatal("expected signature without sha256= prefix to fail")
	}
}

func TestVerifySignatureRejectsEmpty(t *testing.T) {
	if VerifySignature("", []byte("x"), "sha256=abc") {
		t.Fatal("expected empty secret to fail")
	}
	if VerifySignature("shh", []byte("x"), "") {
		t.Fatal("expected empty signature to fail")
	}
}

func TestParseWebhookPayloadExtractsTextMessage(t *testing.T) {
	body := []byte(`{
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "15551234567", "id": "wamid.1", "type": "text", "text": {"body": "hello"}}
		]}}]}]
	}`)
	msg, ok, err := parseWebhookPayload(body)
	if err != nil {
		t.Fatalf("parseWebhookPayload() error = %v", err)
	}
	if !ok {
		t.Fatal("expected a message to be found")
	}
	if msg.From != "15551234567" || msg.Type != "text" || msg.Text.Body != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseWebhookPayloadHandlesNoMessages(t *testing.T) {
	body := []byte(`{"entry": [{"changes": [{"value": {}}]}]}`)
	_, ok, err := parseWebhookPayload(body)
	if err != nil {
		t.Fatalf("parseWebhookPayload() error = %v", err)
	}
	if ok {
		t.Fatal("expected no message to be found")
	}
}

func TestParseWebhookPayloadRejectsInvalidJSON(t *testing.T) {
	if _, _, err := parseWebhookPayload([]byte("not json")); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}

func TestNormalizeWebhookMessageText(t *testing.T) {
	msg := webhookMessage{Type: "text"}
	msg.Text.Body = "  hi there  "
	rawInput, inputType, mediaURL := normalizeWebhookMessage(msg)
	if rawInput != "hi there" || inputType != "text" || mediaURL != "" {
		t.Fatalf("got (%q, %q, %q)", rawInput, inputType, mediaURL)
	}
}

func TestNormalizeWebhookMessageAudioHasNoRawInput(t *testing.T) {
	msg := webhookMessage{Type: "audio"}
	msg.Audio.ID = "abc123"
	rawInput, inputType, mediaURL := normalizeWebhookMessage(msg)
	if rawInput != "" {
		t.Fatalf("expected empty raw_input for audio, got %q", rawInput)
	}
	if inputType != "audio" {
		t.Fatalf("expected input_type audio, got %q", inputType)
	}
	if !strings.Contains(mediaURL, "abc123") {
		t.Fatalf("expected media_url to reference audio id, got %q", mediaURL)
	}
}

func TestNormalizeWebhookMessageUnsupportedType(t *testing.T) {
	rawInput, inputType, mediaURL := normalizeWebhookMessage(webhookMessage{Type: "sticker"})
	if rawInput != "" || inputType != "" || mediaURL != "" {
		t.Fatalf("expected all-empty for unsupported type, got (%q, %q, %q)", rawInput, inputType, mediaURL)
	}
}

func TestWebhookHandlerServesChallenge(t *testing.T) {
	h := NewWebhookHandler("secret", "verify-me", nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "42" {
		t.Fatalf("expected echoed challenge, got %q", rec.Body.String())
	}
}

func TestWebhookHandlerRejectsWrongVerifyToken(t *testing.T) {
	h := NewWebhookHandler("secret", "verify-me", nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=42", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestWebhookHandlerRejectsUnsignedMessage(t *testing.T) {
	h := NewWebhookHandler("secret", "verify-me", func(ctx context.Context, conversationID, rawInput, inputType, mediaURL string) (string, error) {
		t.Fatal("handle should not be called for an unsigned request")
		return "", nil
	}, nil)
	body := []byte(`{"entry":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestWebhookHandlerInvokesHandleOnValidMessage(t *testing.T) {
	secret := "secret"
	body := []byte(`{
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "15551234567", "id": "wamid.1", "type": "text", "text": {"body": "hello"}}
		]}}]}]
	}`)

	var gotConversationID, gotRawInput, gotInputType string
	h := NewWebhookHandler(secret, "verify-me", func(ctx context.Context, conversationID, rawInput, inputType, mediaURL string) (string, error) {
		gotConversationID, gotRawInput, gotInputType = conversationID, rawInput, inputType
		return "ok", nil
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sign(secret, body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotConversationID != "15551234567" || gotRawInput != "hello" || gotInputType != "text" {
		t.Fatalf("unexpected handle args: %q %q %q", gotConversationID, gotRawInput, gotInputType)
	}
}
