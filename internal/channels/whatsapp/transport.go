package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for whatsmeow's session store
)

// HandleFunc is invoked once per inbound message, carrying the same
// conversation_id/raw_input/input_type/media_url triple the orchestrator's
// state-init node consumes. media_url, when set, is a local filesystem path
// to the downloaded attachment rather than a browsable URL — WhatsApp never
// exposes media over plain HTTP, only as an encrypted blob the client must
// fetch and decrypt itself. It returns the formatted_response text to send
// back, or an error to log (nothing is sent back on error).
type HandleFunc func(ctx context.Context, conversationID, rawInput, inputType, mediaURL string) (string, error)

// Transport is a WhatsApp channel built on whatsmeow's multi-device client.
// It owns no turn state: every inbound message is handed to Handle and
// whatever it returns is sent back verbatim.
type Transport struct {
	config Config
	logger *slog.Logger
	handle HandleFunc

	client *whatsmeow.Client
	store  *sqlstore.Container
	device *store.Device

	connMu    sync.RWMutex
	connected bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Transport. Call Start to connect.
func New(cfg Config, logger *slog.Logger, handle HandleFunc) (*Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if handle == nil {
		return nil, fmt.Errorf("whatsapp: handle function is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SessionPath), 0o755); err != nil {
		return nil, fmt.Errorf("whatsapp: create session dir: %w", err)
	}
	if cfg.MediaPath == "" {
		cfg.MediaPath = filepath.Join(filepath.Dir(cfg.SessionPath), "media")
	}
	if err := os.MkdirAll(cfg.MediaPath, 0o755); err != nil {
		return nil, fmt.Errorf("whatsapp: create media dir: %w", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	container, err := sqlstore.New(initCtx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", cfg.SessionPath), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: open session store: %w", err)
	}

	return &Transport{config: cfg, logger: logger, handle: handle, store: container}, nil
}

// Start connects to WhatsApp and begins handling inbound messages.
// If this device has no prior session, the QR code needed to pair is
// logged — whatsmeow does not interactively display it.
func (t *Transport) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	device, err := t.store.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("whatsapp: get device: %w", err)
	}
	t.device = device

	t.client = whatsmeow.NewClient(device, waLog.Noop)
	t.client.AddEventHandler(t.handleEvent)

	if t.client.Store.ID == nil {
		qrChan, err := t.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("whatsapp: get QR channel: %w", err)
		}
		if err := t.client.Connect(); err != nil {
			return fmt.Errorf("whatsapp: connect: %w", err)
		}
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case evt, ok := <-qrChan:
					if !ok {
						return
					}
					if evt.Event == "code" {
						t.logger.Info("whatsapp pairing QR code ready", "code", evt.Code)
					}
				}
			}
		}()
		return nil
	}

	if err := t.client.Connect(); err != nil {
		return fmt.Errorf("whatsapp: connect: %w", err)
	}
	return nil
}

// Stop disconnects the client and waits for background goroutines to exit.
func (t *Transport) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.client != nil {
		t.client.Disconnect()
	}
	t.wg.Wait()
	return nil
}

// Connected reports whether the client currently has an active connection.
func (t *Transport) Connected() bool {
	t.connMu.RLock()
	defer t.connMu.RUnlock()
	return t.connected
}

func (t *Transport) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Connected:
		t.connMu.Lock()
		t.connected = true
		t.connMu.Unlock()
		t.logger.Info("whatsapp connected")
	case *events.Disconnected:
		t.connMu.Lock()
		t.connected = false
		t.connMu.Unlock()
		t.logger.Warn("whatsapp disconnected")
	case *events.LoggedOut:
		t.connMu.Lock()
		t.connected = false
		t.connMu.Unlock()
		t.logger.Warn("whatsapp logged out", "reason", v.Reason)
	case *events.Message:
		t.handleMessage(v)
	}
}

func (t *Transport) handleMessage(evt *events.Message) {
	if evt.Info.Chat.Server == "broadcast" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rawInput, inputType, mediaURL := t.extractContent(ctx, evt)
	if rawInput == "" && mediaURL == "" {
		return
	}

	conversationID := evt.Info.Chat.String()

	response, err := t.handle(ctx, conversationID, rawInput, inputType, mediaURL)
	if err != nil {
		t.logger.Error("whatsapp turn failed", "conversation_id", conversationID, "error", err)
		return
	}
	if response == "" {
		return
	}
	if err := t.send(ctx, evt.Info.Chat, response); err != nil {
		t.logger.Error("whatsapp send failed", "conversation_id", conversationID, "error", err)
	}
}

// extractContent normalizes a whatsmeow message event down to the core's
// raw_input/input_type/media_url triple, discarding every WhatsApp-specific
// envelope field (sender push name, device info, group metadata) the core
// has no use for. Media attachments carry no browsable URL — whatsmeow only
// exposes an encrypted reference that must be fetched with an authenticated
// Download call, so media_url here is a local path to the decrypted bytes
// once downloaded.
func (t *Transport) extractContent(ctx context.Context, evt *events.Message) (rawInput, inputType, mediaURL string) {
	switch {
	case evt.Message.Conversation != nil:
		return *evt.Message.Conversation, "text", ""
	case evt.Message.ExtendedTextMessage != nil:
		return evt.Message.ExtendedTextMessage.GetText(), "text", ""
	case evt.Message.ImageMessage != nil:
		img := evt.Message.ImageMessage
		path := t.downloadMedia(ctx, evt.Info.ID, img, img.GetMimetype(), "")
		return img.GetCaption(), "image", path
	case evt.Message.AudioMessage != nil:
		audio := evt.Message.AudioMessage
		path := t.downloadMedia(ctx, evt.Info.ID, audio, audio.GetMimetype(), "")
		return "", "audio", path
	case evt.Message.DocumentMessage != nil:
		doc := evt.Message.DocumentMessage
		path := t.downloadMedia(ctx, evt.Info.ID, doc, doc.GetMimetype(), doc.GetFileName())
		return doc.GetCaption(), "document", path
	case evt.Message.VideoMessage != nil:
		video := evt.Message.VideoMessage
		path := t.downloadMedia(ctx, evt.Info.ID, video, video.GetMimetype(), "")
		return video.GetCaption(), "video", path
	default:
		return "", "", ""
	}
}

// downloadable is satisfied by every whatsmeow media message type
// (ImageMessage, AudioMessage, DocumentMessage, VideoMessage); it is the
// subset of whatsmeow.DownloadableMessage the client's Download method needs.
type downloadable interface {
	whatsmeow.DownloadableMessage
}

// downloadMedia fetches and decrypts an attachment, writes it under the
// transport's media directory, and returns the path the core can carry as
// media_url. It never returns an error to the caller — a failed download
// degrades to a text-only turn rather than aborting the message entirely.
func (t *Transport) downloadMedia(ctx context.Context, msgID string, msg downloadable, mimeType, filename string) string {
	data, err := t.client.Download(ctx, msg)
	if err != nil {
		t.logger.Error("whatsapp media download failed", "message_id", msgID, "error", err)
		return ""
	}

	name := filename
	if name == "" {
		name = msgID + extensionForMimeType(mimeType)
	}
	path := filepath.Join(t.config.MediaPath, msgID+"-"+name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.logger.Error("whatsapp media write failed", "message_id", msgID, "error", err)
		return ""
	}
	return path
}

func extensionForMimeType(mimeType string) string {
	i := strings.LastIndexByte(mimeType, '/')
	if i < 0 || i == len(mimeType)-1 {
		return ""
	}
	return "." + mimeType[i+1:]
}

func (t *Transport) send(ctx context.Context, jid types.JID, text string) error {
	msg := &waE2E.Message{Conversation: proto.String(text)}
	_, err := t.client.SendMessage(ctx, jid, msg)
	return err
}
