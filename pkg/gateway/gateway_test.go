package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aarogya-ai/aarogya/pkg/content"
	"github.com/aarogya-ai/aarogya/pkg/llm"
	"github.com/aarogya-ai/aarogya/pkg/providers/mock"
	"github.com/aarogya-ai/aarogya/pkg/resilience"
	"github.com/aarogya-ai/aarogya/pkg/session"
)

func newGateway(adapter llm.Adapter) *Gateway {
	g := New(adapter, Config{MaxAttempts: 3, Backoff: time.Millisecond}, slog.Default())
	g.SetSleep(func(time.Duration) {})
	return g
}

func TestGenerateReplyCommitsHistoryOnSuccess(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{Script: []mock.Step{{Text: "Rest and drink fluids."}}})
	g := newGateway(adapter)
	sess := session.New(time.Now())

	reply := g.GenerateReply(context.Background(), sess, "I have a mild headache", "en")
	if reply != "Rest and drink fluids." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(sess.History) != 2 {
		t.Fatalf("expected user+model turns, got %d", len(sess.History))
	}
	if sess.History[0].Role != llm.RoleUser || sess.History[1].Role != llm.RoleModel {
		t.Fatalf("unexpected history roles: %+v", sess.History)
	}
}

func TestGenerateReplySendsHistoryAndPersona(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{Script: []mock.Step{{Text: "ok"}}})
	g := newGateway(adapter)
	sess := session.New(time.Now())
	sess.Append(llm.RoleUser, "fever since yesterday")
	sess.Append(llm.RoleModel, "How high is the fever?")

	_ = g.GenerateReply(context.Background(), sess, "102 degrees", "hi")
	req, ok := adapter.LastRequest()
	if !ok {
		t.Fatalf("expected a generate request")
	}
	if len(req.Messages) != 3 {
		t.Fatalf("expected prior history plus new question, got %d messages", len(req.Messages))
	}
	if req.Messages[2].Text != "102 degrees" {
		t.Fatalf("last message should be the new question, got %q", req.Messages[2].Text)
	}
	if !strings.Contains(req.System, "(HI)") {
		t.Fatalf("system instruction should pin the language, got %q", req.System)
	}
	if req.Temperature != generateTemperature || req.MaxTokens != generateMaxTokens {
		t.Fatalf("unexpected generation config: %+v", req)
	}
}

func TestGenerateReplyRetriesThenSucceeds(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{Script: []mock.Step{
		{Err: llm.TransientError{Err: errors.New("503")}},
		{Err: llm.TransientError{Err: errors.New("503")}},
		{Text: "Better now."},
	}})
	g := newGateway(adapter)
	sess := session.New(time.Now())

	reply := g.GenerateReply(context.Background(), sess, "still dizzy", "en")
	if reply != "Better now." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if adapter.GenerateCalls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", adapter.GenerateCalls())
	}
}

func TestGenerateReplyExhaustedRetriesFallsBack(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{Script: []mock.Step{
		{Err: llm.TransientError{Err: errors.New("down")}},
	}})
	g := newGateway(adapter)
	sess := session.New(time.Now())

	reply := g.GenerateReply(context.Background(), sess, "help", "hi")
	if reply != content.Fallback("hi") {
		t.Fatalf("expected localized fallback, got %q", reply)
	}
	if adapter.GenerateCalls() != 3 {
		t.Fatalf("expected exactly max attempts, got %d", adapter.GenerateCalls())
	}
	if len(sess.History) != 0 {
		t.Fatalf("failed turn must not leave history behind: %+v", sess.History)
	}
}

func TestGenerateReplyEmptyModelOutputFallsBack(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{Script: []mock.Step{{Text: "   "}}})
	g := newGateway(adapter)
	sess := session.New(time.Now())

	reply := g.GenerateReply(context.Background(), sess, "hello", "en")
	if reply != content.Fallback("en") {
		t.Fatalf("expected fallback for empty output, got %q", reply)
	}
	if adapter.GenerateCalls() != 1 {
		t.Fatalf("empty reply is not transient, expected 1 attempt, got %d", adapter.GenerateCalls())
	}
	if len(sess.History) != 0 {
		t.Fatalf("expected no history commit")
	}
}

func TestGenerateReplyUnconfiguredAdapter(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{Unconfigured: true, Script: []mock.Step{{Text: "never"}}})
	g := newGateway(adapter)
	sess := session.New(time.Now())

	reply := g.GenerateReply(context.Background(), sess, "hello", "bn")
	if reply != content.Fallback("bn") {
		t.Fatalf("expected fallback, got %q", reply)
	}
	if adapter.GenerateCalls() != 0 {
		t.Fatalf("unconfigured gateway must not call the provider")
	}
}

func TestGenerateReplyOpenBreakerShortCircuits(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{Script: []mock.Step{
		{Err: resilience.RateLimitError{Provider: "gemini", Message: "quota exceeded"}},
	}})
	g := New(adapter, Config{MaxAttempts: 1, BreakerThreshold: 2, BreakerCooldown: time.Minute}, slog.Default())
	g.SetSleep(func(time.Duration) {})
	sess := session.New(time.Now())

	for i := 0; i < 2; i++ {
		if reply := g.GenerateReply(context.Background(), sess, "hello", "en"); reply != content.Fallback("en") {
			t.Fatalf("expected fallback while rate limited, got %q", reply)
		}
	}
	if adapter.GenerateCalls() != 2 {
		t.Fatalf("expected 2 provider calls before the breaker opens, got %d", adapter.GenerateCalls())
	}

	if reply := g.GenerateReply(context.Background(), sess, "hello again", "en"); reply != content.Fallback("en") {
		t.Fatalf("expected fallback from the open breaker, got %q", reply)
	}
	if adapter.GenerateCalls() != 2 {
		t.Fatalf("open breaker must not reach the provider, got %d calls", adapter.GenerateCalls())
	}
	if len(sess.History) != 0 {
		t.Fatalf("rate limited turns must not commit history: %+v", sess.History)
	}
}

func TestTranscribeSingleAttempt(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{
		Script:         []mock.Step{{Text: "unused"}},
		TranscribeText: "mujhe bukhar hai",
	})
	g := newGateway(adapter)

	text, err := g.Transcribe(context.Background(), []byte{1, 2, 3}, "audio/ogg")
	if err != nil {
		t.Fatalf("transcribe error: %v", err)
	}
	if text != "mujhe bukhar hai" {
		t.Fatalf("unexpected transcript %q", text)
	}
	if adapter.TranscribeCalls() != 1 {
		t.Fatalf("expected a single attempt, got %d", adapter.TranscribeCalls())
	}
}

func TestTranscribeFailureNotRetried(t *testing.T) {
	adapter := mock.NewLLMAdapter(mock.LLMConfig{
		Script:        []mock.Step{{Text: "unused"}},
		TranscribeErr: errors.New("decode error"),
	})
	g := newGateway(adapter)

	if _, err := g.Transcribe(context.Background(), []byte{1}, "audio/ogg"); err == nil {
		t.Fatalf("expected error")
	}
	if adapter.TranscribeCalls() != 1 {
		t.Fatalf("transcription must not retry, got %d attempts", adapter.TranscribeCalls())
	}
}
