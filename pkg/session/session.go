package session

import "time"

// Turn is one entry of conversation history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Session holds the per-user conversational state. Language is set once
// from the first message and never re-detected for the session's
// lifetime; History is append-only and owned by the session.
type Session struct {
	Language     string    `json:"language"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
	History      []Turn    `json:"history"`
}

// New returns a fresh, empty session stamped at now.
func New(now time.Time) *Session {
	return &Session{LastActivity: now}
}

// Expired reports whether the session has been idle past timeout. An
// expired session is treated exactly like a missing one.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastActivity) > timeout
}

// Touch slides the expiry window.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// Append adds one history turn.
func (s *Session) Append(role, text string) {
	s.History = append(s.History, Turn{Role: role, Text: text})
}
