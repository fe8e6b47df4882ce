package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aarogya-ai/aarogya/pkg/content"
	"github.com/aarogya-ai/aarogya/pkg/lang"
	"github.com/aarogya-ai/aarogya/pkg/logging"
	"github.com/aarogya-ai/aarogya/pkg/safety"
	"github.com/aarogya-ai/aarogya/pkg/session"
)

// ReplyGenerator is the model boundary the orchestrator talks to.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, sess *session.Session, question, lang string) string
}

// Orchestrator runs the per-turn decision sequence: resolve session,
// freeze language, safety interrupts, welcome banner, model turn,
// referral footer.
type Orchestrator struct {
	store      session.Store
	classifier *safety.Classifier
	detector   *lang.Detector
	generator  ReplyGenerator
	logger     *slog.Logger
}

func New(store session.Store, classifier *safety.Classifier, detector *lang.Detector, generator ReplyGenerator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		classifier: classifier,
		detector:   detector,
		generator:  generator,
		logger:     logging.NewComponentLogger(logger, "conversation"),
	}
}

// Respond produces the outbound reply for one inbound message. It never
// returns an error or panics to the transport: every failure resolves
// to a fixed localized string. Turns for the same user are serialized.
func (o *Orchestrator) Respond(ctx context.Context, userID, text string, isAudio bool) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn_panic", "user_id", userID, "panic", r)
			reply = content.Fallback(o.detector.Default())
		}
	}()
	_ = o.store.WithLock(userID, func() error {
		reply = o.turn(ctx, userID, text, isAudio)
		return nil
	})
	return reply
}

func (o *Orchestrator) turn(ctx context.Context, userID, text string, isAudio bool) string {
	sess, err := o.store.GetOrCreate(ctx, userID)
	if err != nil {
		o.logger.Error("session_load_failed", "user_id", userID, "error", err.Error())
		return content.Fallback(o.detector.Default())
	}

	first := sess.MessageCount == 0
	sess.MessageCount++

	if sess.Language == "" {
		res := o.detector.Detect(text)
		sess.Language = res.Code
		o.logger.Debug("language_resolved", "user_id", userID, "language", res.Code, "detected", res.Detected)
	}
	language := sess.Language

	if err := o.store.Put(ctx, userID, sess); err != nil {
		o.logger.Error("session_commit_failed", "user_id", userID, "error", err.Error())
	}

	switch m := o.classifier.Classify(text); m.Kind {
	case safety.KindExit:
		_ = o.store.Remove(ctx, userID)
		return content.ExitAck
	case safety.KindEmergency:
		o.logger.Error("emergency_keyword_detected",
			"severity", "critical",
			"user_id", userID,
			"phrase", m.Phrase,
		)
		_ = o.store.Remove(ctx, userID)
		return content.Emergency(language)
	}

	var sb strings.Builder
	if first && !isAudio {
		sb.WriteString(content.WelcomePrefix(language))
	}
	sb.WriteString(o.generator.GenerateReply(ctx, sess, text, language))
	sb.WriteString(content.ReferralBlock(language))

	if err := o.store.Put(ctx, userID, sess); err != nil {
		o.logger.Error("session_commit_failed", "user_id", userID, "error", err.Error())
	}
	return sb.String()
}

// FallbackReply resolves the localized fallback for a user without
// mutating their session; the transport uses it when transcription or
// media download fails before a turn can start.
func (o *Orchestrator) FallbackReply(ctx context.Context, userID string) string {
	language := o.detector.Default()
	if sess, err := o.store.GetOrCreate(ctx, userID); err == nil && sess.Language != "" {
		language = sess.Language
	}
	return content.Fallback(language)
}
