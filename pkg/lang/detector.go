package lang

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Result distinguishes a confident detection from the default fallback.
type Result struct {
	Code     string
	Detected bool
}

// Detector maps free text to a supported ISO 639-1 code. Detection is
// best effort: anything the detector cannot place inside the supported
// set resolves to the default code.
type Detector struct {
	detector  lingua.LanguageDetector
	supported map[string]struct{}
	fallback  string
}

var linguaByCode = map[string]lingua.Language{
	"en": lingua.English,
	"hi": lingua.Hindi,
	"mr": lingua.Marathi,
	"bn": lingua.Bengali,
	"ta": lingua.Tamil,
	"te": lingua.Telugu,
	"gu": lingua.Gujarati,
	"pa": lingua.Punjabi,
	"ur": lingua.Urdu,
}

func New(supported []string, fallback string) *Detector {
	if fallback == "" {
		fallback = "en"
	}
	set := make(map[string]struct{}, len(supported))
	langs := make([]lingua.Language, 0, len(supported))
	for _, code := range supported {
		code = strings.ToLower(strings.TrimSpace(code))
		l, ok := linguaByCode[code]
		if !ok {
			continue
		}
		set[code] = struct{}{}
		langs = append(langs, l)
	}
	d := &Detector{supported: set, fallback: fallback}
	// lingua needs at least two candidate languages to discriminate.
	if len(langs) >= 2 {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			Build()
	}
	return d
}

// Detect returns the supported language code for text, or the default
// when the text is empty, the detector is unavailable, or the detected
// language is outside the supported set.
func (d *Detector) Detect(text string) Result {
	text = strings.TrimSpace(text)
	if text == "" || d.detector == nil {
		return Result{Code: d.fallback}
	}
	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return Result{Code: d.fallback}
	}
	code := strings.ToLower(detected.IsoCode639_1().String())
	if _, ok := d.supported[code]; !ok {
		return Result{Code: d.fallback}
	}
	return Result{Code: code, Detected: true}
}

// Default returns the fallback code.
func (d *Detector) Default() string { return d.fallback }
