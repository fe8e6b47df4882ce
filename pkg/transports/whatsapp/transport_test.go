package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type fakeResponder struct {
	lastUserID  string
	lastText    string
	lastIsAudio bool
	calls       int
}

func (f *fakeResponder) Respond(ctx context.Context, userID, text string, isAudio bool) string {
	f.calls++
	f.lastUserID = userID
	f.lastText = text
	f.lastIsAudio = isAudio
	return "stay hydrated"
}

func (f *fakeResponder) FallbackReply(ctx context.Context, userID string) string {
	return "sorry, try later"
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return f.text, f.err
}

func postForm(t *testing.T, tr *Transport, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	tr.handleMessage(w, req)
	return w
}

func TestTextMessageProducesTwiMLReply(t *testing.T) {
	responder := &fakeResponder{}
	tr := New(Config{}, responder, nil)

	w := postForm(t, tr, url.Values{
		"From":     {"whatsapp:+919999999999"},
		"Body":     {"I have a mild headache"},
		"NumMedia": {"0"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Response><Message>stay hydrated</Message></Response>") {
		t.Fatalf("unexpected twiml %q", body)
	}
	if responder.lastUserID != "whatsapp:+919999999999" {
		t.Fatalf("unexpected user id %q", responder.lastUserID)
	}
	if responder.lastIsAudio {
		t.Fatalf("text message flagged as audio")
	}
}

func TestEmptyBodyShortCircuits(t *testing.T) {
	responder := &fakeResponder{}
	tr := New(Config{}, responder, nil)

	w := postForm(t, tr, url.Values{
		"From":     {"whatsapp:+911111111111"},
		"Body":     {"   "},
		"NumMedia": {"0"},
	})

	if responder.calls != 0 {
		t.Fatalf("empty message must bypass the responder")
	}
	if !strings.Contains(w.Body.String(), "empty message") {
		t.Fatalf("expected empty-message notice, got %q", w.Body.String())
	}
}

func TestVoiceNoteIsTranscribed(t *testing.T) {
	responder := &fakeResponder{}
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); !ok || user != "AC123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("oggdata"))
	}))
	defer media.Close()

	tr := New(Config{AccountSID: "AC123"}, responder, &fakeTranscriber{text: "mujhe bukhar hai"})

	w := postForm(t, tr, url.Values{
		"From":              {"whatsapp:+912222222222"},
		"Body":              {""},
		"NumMedia":          {"1"},
		"MediaUrl0":         {media.URL + "/media/ME1.json"},
		"MediaContentType0": {"audio/ogg"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if responder.lastText != "mujhe bukhar hai" {
		t.Fatalf("expected transcript forwarded, got %q", responder.lastText)
	}
	if !responder.lastIsAudio {
		t.Fatalf("voice note not flagged as audio")
	}
}

func TestTranscriptionFailureReturnsFallback(t *testing.T) {
	responder := &fakeResponder{}
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("oggdata"))
	}))
	defer media.Close()

	tr := New(Config{}, responder, &fakeTranscriber{err: errors.New("decode failed")})

	w := postForm(t, tr, url.Values{
		"From":      {"whatsapp:+913333333333"},
		"NumMedia":  {"1"},
		"MediaUrl0": {media.URL + "/media/ME2"},
	})

	if responder.calls != 0 {
		t.Fatalf("failed transcription must not reach the responder")
	}
	if !strings.Contains(w.Body.String(), "sorry, try later") {
		t.Fatalf("expected fallback reply, got %q", w.Body.String())
	}
}

func TestSignatureRequiredWhenAuthTokenSet(t *testing.T) {
	responder := &fakeResponder{}
	tr := New(Config{AuthToken: "secret"}, responder, nil)

	w := postForm(t, tr, url.Values{
		"From": {"whatsapp:+914444444444"},
		"Body": {"hello"},
	})

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unsigned request, got %d", w.Code)
	}
	if responder.calls != 0 {
		t.Fatalf("unsigned request must not reach the responder")
	}
}

func TestNonPostRejected(t *testing.T) {
	tr := New(Config{}, &fakeResponder{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/whatsapp", nil)
	w := httptest.NewRecorder()
	tr.handleMessage(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestMessagingResponseEscapesXML(t *testing.T) {
	out := messagingResponse(`take <rest> & "fluids"`)
	if strings.Contains(out, "<rest>") {
		t.Fatalf("body not escaped: %q", out)
	}
	if !strings.Contains(out, "&lt;rest&gt; &amp; &quot;fluids&quot;") {
		t.Fatalf("unexpected escaping: %q", out)
	}
}
