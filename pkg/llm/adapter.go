package llm

import (
	"context"
	"errors"
)

// Conversation roles as the provider API names them.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn of model context.
type Message struct {
	Role string
	Text string
}

// Request carries everything a provider needs for one generation call.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type Response struct {
	Text         string
	FinishReason string
	Tokens       int
}

// Adapter is implemented by concrete model providers.
type Adapter interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	Configured() bool
	Name() string
}

// TransientError marks a failure worth retrying (network, 5xx).
type TransientError struct {
	Err error
}

func (e TransientError) Error() string {
	if e.Err == nil {
		return "transient provider error"
	}
	return e.Err.Error()
}

func (e TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var te TransientError
	return errors.As(err, &te)
}
