package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aarogya-ai/aarogya/pkg/llm"
	"github.com/aarogya-ai/aarogya/pkg/resilience"
)

const transcribeInstruction = "Transcribe the following audio recording into the language being spoken. Provide only the text transcription."

// Adapter talks to the Gemini generateContent API over plain HTTP.
type Adapter struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewAdapter(apiKey, model string) *Adapter {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Adapter{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *Adapter) Name() string { return "gemini" }

func (a *Adapter) Configured() bool { return strings.TrimSpace(a.APIKey) != "" }

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents          []contentEntry    `json:"contents"`
	SystemInstruction *contentEntry     `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type contentEntry struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (a *Adapter) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	body := generateRequest{
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &contentEntry{Parts: []part{{Text: req.System}}}
	}
	for _, m := range req.Messages {
		body.Contents = append(body.Contents, contentEntry{
			Role:  m.Role,
			Parts: []part{{Text: m.Text}},
		})
	}
	return a.call(ctx, body)
}

func (a *Adapter) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "audio/ogg"
	}
	body := generateRequest{
		Contents: []contentEntry{{
			Role: llm.RoleUser,
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
				{Text: transcribeInstruction},
			},
		}},
	}
	resp, err := a.call(ctx, body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (a *Adapter) call(ctx context.Context, body generateRequest) (llm.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Response{}, err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(a.BaseURL, "/"), a.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.APIKey)

	resp, err := a.client().Do(req)
	if err != nil {
		return llm.Response{}, llm.TransientError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, llm.TransientError{Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return llm.Response{}, resilience.RateLimitError{Provider: a.Name(), Message: strings.TrimSpace(string(raw))}
	case resp.StatusCode >= 500:
		return llm.Response{}, llm.TransientError{Err: fmt.Errorf("gemini status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return llm.Response{}, fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Response{}, err
	}
	if len(parsed.Candidates) == 0 {
		return llm.Response{}, errors.New("gemini: no candidates")
	}
	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return llm.Response{
		Text:         sb.String(),
		FinishReason: parsed.Candidates[0].FinishReason,
		Tokens:       parsed.UsageMetadata.TotalTokenCount,
	}, nil
}

func (a *Adapter) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

var _ llm.Adapter = (*Adapter)(nil)
