package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	twilioclient "github.com/twilio/twilio-go/client"

	"github.com/aarogya-ai/aarogya/pkg/content"
	"github.com/aarogya-ai/aarogya/pkg/errorsx"
	"github.com/aarogya-ai/aarogya/pkg/logging"
	"github.com/aarogya-ai/aarogya/pkg/resilience"
)

// Responder turns one inbound message into the outbound reply text.
type Responder interface {
	Respond(ctx context.Context, userID, text string, isAudio bool) string
	FallbackReply(ctx context.Context, userID string) string
}

// Transcriber converts downloaded voice-note bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type Config struct {
	ServerAddr  string `mapstructure:"server_addr"`
	PublicURL   string `mapstructure:"public_url"`
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	WebhookPath string `mapstructure:"webhook_path"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.WebhookPath == "" {
		c.WebhookPath = "/whatsapp"
	}
	return c
}

// Transport receives Twilio WhatsApp webhooks, resolves media to text,
// and writes the responder's reply back as TwiML. It holds the provider
// credentials so nothing downstream ever sees them.
type Transport struct {
	cfg         Config
	responder   Responder
	transcriber Transcriber
	server      *http.Server
	client      *http.Client
	retry       resilience.RetryPolicy
	logger      *slog.Logger
}

func New(cfg Config, responder Responder, transcriber Transcriber) *Transport {
	return &Transport{
		cfg:         cfg.withDefaults(),
		responder:   responder,
		transcriber: transcriber,
		client:      &http.Client{Timeout: 30 * time.Second},
		retry:       resilience.NewRetryPolicy(2, 300*time.Millisecond),
		logger:      logging.NewComponentLogger(slog.Default(), "whatsapp_transport"),
	}
}

func (t *Transport) Name() string { return "twilio_whatsapp" }

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc(t.cfg.WebhookPath, t.handleMessage)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "WhatsApp AI Health Assistant is running.")
	})
	t.server = &http.Server{
		Addr:              t.cfg.ServerAddr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	go func() {
		<-ctx.Done()
		_ = t.server.Close()
	}()
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("server_error", "error", err.Error())
		}
	}()
	t.logger.Info("transport_started", "addr", t.cfg.ServerAddr, "webhook_path", t.cfg.WebhookPath)
	return nil
}

// Drain shuts the server down gracefully, letting in-flight turns finish.
func (t *Transport) Drain() error {
	if t.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return t.server.Shutdown(ctx)
}

func (t *Transport) Stop() error { return t.Drain() }

func (t *Transport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if t.cfg.AuthToken != "" && !t.validateSignature(r) {
		t.logger.Warn("invalid_signature", "reason_code", string(errorsx.ReasonTransportInvalidSignature))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	ctx := r.Context()
	traceID := uuid.NewString()
	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	mediaURL := r.PostFormValue("MediaUrl0")
	numMedia, _ := strconv.Atoi(r.PostFormValue("NumMedia"))
	isAudio := false

	t.logger.Info("inbound_message",
		"trace_id", traceID,
		"from", from,
		"has_media", numMedia > 0,
	)

	if numMedia > 0 && mediaURL != "" {
		isAudio = true
		mimeType := r.PostFormValue("MediaContentType0")
		if mimeType == "" {
			mimeType = "audio/ogg"
		}
		text, err := t.resolveMedia(ctx, mediaURL, mimeType)
		if err != nil {
			t.logger.Error("media_processing_failed",
				"trace_id", traceID,
				"reason_code", string(errorsx.Reason(err)),
				"error", err.Error(),
			)
			t.writeReply(w, t.responder.FallbackReply(ctx, from))
			return
		}
		body = text
	}

	if strings.TrimSpace(body) == "" {
		t.writeReply(w, content.EmptyNotice)
		return
	}
	t.writeReply(w, t.responder.Respond(ctx, from, body, isAudio))
}

// resolveMedia downloads the voice note with provider auth and hands
// the bytes to the transcriber. Download retries on transient failure;
// transcription does not.
func (t *Transport) resolveMedia(ctx context.Context, mediaURL, mimeType string) (string, error) {
	if t.transcriber == nil {
		return "", errorsx.New("no transcriber configured", errorsx.ReasonTranscribe)
	}
	var audio []byte
	err := t.retry.Do(ctx, func() error {
		var derr error
		audio, derr = t.downloadMedia(ctx, mediaURL)
		return derr
	})
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonMediaDownload)
	}
	return t.transcriber.Transcribe(ctx, audio, mimeType)
}

func (t *Transport) downloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	// Twilio serves the raw media when the .json suffix is stripped.
	url := strings.TrimSuffix(mediaURL, ".json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (t *Transport) validateSignature(r *http.Request) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	params := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	validator := twilioclient.NewRequestValidator(t.cfg.AuthToken)
	return validator.Validate(t.requestURL(r), params, signature)
}

func (t *Transport) requestURL(r *http.Request) string {
	if t.cfg.PublicURL != "" {
		return strings.TrimRight(t.cfg.PublicURL, "/") + r.URL.RequestURI()
	}
	scheme := r.URL.Scheme
	if scheme == "" {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		} else {
			scheme = "https"
		}
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func (t *Transport) writeReply(w http.ResponseWriter, reply string) {
	w.Header().Set("Content-Type", "application/xml")
	_, _ = io.WriteString(w, messagingResponse(reply))
}
