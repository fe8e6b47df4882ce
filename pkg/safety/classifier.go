package safety

import "strings"

// Kind tags the outcome of safety classification.
type Kind int

const (
	KindNone Kind = iota
	KindExit
	KindEmergency
)

func (k Kind) String() string {
	switch k {
	case KindExit:
		return "exit"
	case KindEmergency:
		return "emergency"
	default:
		return "none"
	}
}

// Match is the result of classifying one inbound message.
type Match struct {
	Kind   Kind
	Phrase string
}

func (m Match) IsExit() bool      { return m.Kind == KindExit }
func (m Match) IsEmergency() bool { return m.Kind == KindEmergency }

// DefaultExitWords end the conversation gracefully.
var DefaultExitWords = []string{
	"bye", "no", "thanks", "thank you", "नहीं", "धन्यवाद", "stop", "exit", "band karo",
}

// DefaultEmergencyWords trigger the immediate 108 handoff, bypassing the model.
var DefaultEmergencyWords = []string{
	"unconscious", "chest pain", "heavy bleeding", "heart attack",
	"saans lene me dikkat", "सांस लेने में दिक्कत", "दम घुट रहा", "साँस लेने में कठिनाई",
}

type rule struct {
	kind    Kind
	phrases []string
}

// Classifier evaluates exit and emergency phrase rules in a fixed order.
// Exit is checked before emergency: a message containing both ends the
// session quietly rather than triggering the handoff.
type Classifier struct {
	rules []rule
}

func New(exitWords, emergencyWords []string) *Classifier {
	if len(exitWords) == 0 {
		exitWords = DefaultExitWords
	}
	if len(emergencyWords) == 0 {
		emergencyWords = DefaultEmergencyWords
	}
	return &Classifier{rules: []rule{
		{kind: KindExit, phrases: normalizeAll(exitWords)},
		{kind: KindEmergency, phrases: normalizeAll(emergencyWords)},
	}}
}

// Classify runs the ordered rules against the normalized text and
// returns the first match.
func (c *Classifier) Classify(text string) Match {
	norm := Normalize(text)
	if norm == "" {
		return Match{Kind: KindNone}
	}
	for _, r := range c.rules {
		for _, p := range r.phrases {
			if strings.Contains(norm, p) {
				return Match{Kind: r.kind, Phrase: p}
			}
		}
	}
	return Match{Kind: KindNone}
}

// Normalize lower-cases and trims inbound text for matching.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func normalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}
