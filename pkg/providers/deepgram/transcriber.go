package deepgram

import (
	"bytes"
	"context"
	"strings"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/aarogya-ai/aarogya/pkg/errorsx"
)

// Transcriber runs prerecorded transcription of voice notes through
// Deepgram, as an alternative to the model gateway's own transcription.
type Transcriber struct {
	apiKey string
	model  string
}

func New(apiKey, model string) *Transcriber {
	if model == "" {
		model = "nova-2"
	}
	return &Transcriber{apiKey: apiKey, model: model}
}

func (t *Transcriber) Name() string { return "deepgram" }

func (t *Transcriber) Configured() bool { return strings.TrimSpace(t.apiKey) != "" }

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	rest := client.NewREST(t.apiKey, &interfaces.ClientOptions{})
	dg := listenv1rest.New(rest)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:          t.model,
		SmartFormat:    true,
		DetectLanguage: true,
	}
	res, err := dg.FromStream(ctx, bytes.NewReader(audio), options)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTranscribe)
	}
	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", errorsx.New("deepgram: empty transcription result", errorsx.ReasonTranscribe)
	}
	return strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript), nil
}
