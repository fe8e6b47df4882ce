package gateway

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aarogya-ai/aarogya/pkg/content"
	"github.com/aarogya-ai/aarogya/pkg/errorsx"
	"github.com/aarogya-ai/aarogya/pkg/llm"
	"github.com/aarogya-ai/aarogya/pkg/logging"
	"github.com/aarogya-ai/aarogya/pkg/resilience"
	"github.com/aarogya-ai/aarogya/pkg/session"
)

const (
	generateTemperature = 0.7
	generateMaxTokens   = 500
)

// Transcriber converts already-downloaded audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	Configured() bool
	Name() string
}

// Config bounds the retry and breaker behavior of generation calls.
type Config struct {
	MaxAttempts      int
	Backoff          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Gateway is the single boundary to the external model. GenerateReply
// never returns an error to callers: every failure of a generation path
// degrades to the localized fallback string.
type Gateway struct {
	adapter     llm.Adapter
	transcriber Transcriber
	cfg         Config
	breaker     *resilience.CircuitBreaker
	sleep       func(time.Duration)
	logger      *slog.Logger
}

func New(adapter llm.Adapter, cfg Config, logger *slog.Logger) *Gateway {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	g := &Gateway{
		adapter: adapter,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "gateway"),
	}
	if cfg.BreakerThreshold > 0 {
		g.breaker = resilience.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown)
	}
	return g
}

// SetTranscriber overrides the transcription vendor. By default the
// model adapter's own multimodal transcription is used.
func (g *Gateway) SetTranscriber(t Transcriber) { g.transcriber = t }

// SetSleep replaces the backoff sleep, for tests.
func (g *Gateway) SetSleep(fn func(time.Duration)) { g.sleep = fn }

// GenerateReply asks the model for one turn. History is committed to
// the session only after a confirmed non-empty reply, so a failed call
// never leaves an orphaned user turn behind.
func (g *Gateway) GenerateReply(ctx context.Context, sess *session.Session, question, lang string) string {
	if g.adapter == nil || !g.adapter.Configured() {
		g.logger.Warn("llm_unconfigured", "reason_code", string(errorsx.ReasonLLMUnconfigured))
		return content.Fallback(lang)
	}
	if g.breaker != nil && !g.breaker.Allow() {
		g.logger.Warn("llm_breaker_open", "reason_code", string(errorsx.ReasonLLMRateLimit))
		return content.Fallback(lang)
	}

	req := llm.Request{
		System:      systemInstruction(lang),
		Messages:    buildMessages(sess, question),
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	}
	resp, err := llm.Retry(ctx, llm.RetryConfig{
		MaxAttempts: g.cfg.MaxAttempts,
		BaseDelay:   g.cfg.Backoff,
		Sleep:       g.sleep,
	}, func(ctx context.Context) (llm.Response, error) {
		r, err := g.adapter.Generate(ctx, req)
		if err != nil {
			return llm.Response{}, err
		}
		if strings.TrimSpace(r.Text) == "" {
			return llm.Response{}, errorsx.New("model returned empty reply", errorsx.ReasonLLMEmptyReply)
		}
		return r, nil
	})
	if g.breaker != nil {
		if err != nil {
			g.breaker.OnError(err)
		} else {
			g.breaker.OnSuccess()
		}
	}
	if err != nil {
		reason := errorsx.Reason(err)
		if reason == errorsx.ReasonUnknown {
			reason = errorsx.ReasonLLMGenerate
		}
		g.logger.Error("llm_generate_failed",
			"reason_code", string(reason),
			"provider", g.adapter.Name(),
			"error", err.Error(),
		)
		return content.Fallback(lang)
	}

	reply := strings.TrimSpace(resp.Text)
	sess.Append(llm.RoleUser, question)
	sess.Append(llm.RoleModel, reply)
	return reply
}

// Transcribe runs one best-effort transcription attempt; failures are
// returned to the caller, not retried.
func (g *Gateway) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	t := g.transcriber
	if t == nil {
		t = g.adapter
	}
	if t == nil || !t.Configured() {
		return "", errorsx.New("transcription vendor unconfigured", errorsx.ReasonLLMUnconfigured)
	}
	text, err := t.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTranscribe)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errorsx.New("empty transcript", errorsx.ReasonTranscribe)
	}
	return text, nil
}

func buildMessages(sess *session.Session, question string) []llm.Message {
	msgs := make([]llm.Message, 0, len(sess.History)+1)
	for _, turn := range sess.History {
		msgs = append(msgs, llm.Message{Role: turn.Role, Text: turn.Text})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Text: question})
}
