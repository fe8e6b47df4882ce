package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/aarogya-ai/aarogya/pkg/llm"
)

// Step scripts one Generate call.
type Step struct {
	Text string
	Err  error
}

// LLMConfig scripts the adapter for tests.
type LLMConfig struct {
	Script         []Step
	TranscribeText string
	TranscribeErr  error
	Unconfigured   bool
}

// LLMAdapter is a scripted in-memory model provider. Each Generate call
// consumes the next script step; the last step repeats once the script
// is exhausted.
type LLMAdapter struct {
	cfg LLMConfig

	mu              sync.Mutex
	generateCalls   int
	transcribeCalls int
	requests        []llm.Request
}

func NewLLMAdapter(cfg LLMConfig) *LLMAdapter {
	return &LLMAdapter{cfg: cfg}
}

func (a *LLMAdapter) Name() string { return "mock" }

func (a *LLMAdapter) Configured() bool { return !a.cfg.Unconfigured }

func (a *LLMAdapter) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.generateCalls
	a.generateCalls++
	a.requests = append(a.requests, req)
	if len(a.cfg.Script) == 0 {
		return llm.Response{}, errors.New("mock llm: empty script")
	}
	if idx >= len(a.cfg.Script) {
		idx = len(a.cfg.Script) - 1
	}
	step := a.cfg.Script[idx]
	if step.Err != nil {
		return llm.Response{}, step.Err
	}
	return llm.Response{Text: step.Text, FinishReason: "stop"}, nil
}

func (a *LLMAdapter) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	a.mu.Lock()
	a.transcribeCalls++
	a.mu.Unlock()
	if a.cfg.TranscribeErr != nil {
		return "", a.cfg.TranscribeErr
	}
	return a.cfg.TranscribeText, nil
}

// GenerateCalls reports how many Generate calls were made.
func (a *LLMAdapter) GenerateCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generateCalls
}

// TranscribeCalls reports how many Transcribe calls were made.
func (a *LLMAdapter) TranscribeCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transcribeCalls
}

// LastRequest returns the most recent Generate request, if any.
func (a *LLMAdapter) LastRequest() (llm.Request, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		return llm.Request{}, false
	}
	return a.requests[len(a.requests)-1], true
}

var _ llm.Adapter = (*LLMAdapter)(nil)
