// Package session implements the per-session actor and its registry. Every
// operation against one session id is serialized through the actor's mutex;
// different sessions are fully independent. The actor holds the single
// mutable reference to the current session record and persists after every
// mutation.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"

	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
	"github.com/prepstage/prepstage/internal/interviewsrv/feedback"
	"github.com/prepstage/prepstage/internal/interviewsrv/question"
	"github.com/prepstage/prepstage/internal/interviewsrv/sessionstore"
)

// chatFallbackLine substitutes for a failed chat generation so the candidate
// always gets a reply.
const chatFallbackLine = "Sorry, I didn't catch that. Could you rephrase your question?"

// deps are the collaborators shared by every actor under one manager.
type deps struct {
	store         sessionstore.Store
	selector      *question.Selector
	synthesizer   *feedback.Synthesizer
	gateway       aigateway.Gateway
	maxQuestions  int
	maxAge        time.Duration
	sweepInterval time.Duration
}

// Actor owns one session. All operations lock the actor mutex, so no two
// operations ever interleave their reads and writes of the session record.
type Actor struct {
	mu      sync.Mutex
	id      uuid.UUID
	current entity.Session
	deps    *deps

	stop     chan struct{}
	stopOnce sync.Once
}

var _ interface {
	RecordInteraction(ctx context.Context, userText, aiText string)
} = (*Actor)(nil)

// newActor wraps an existing session record. Non-terminal sessions get a
// background expiry sweeper.
func newActor(id uuid.UUID, sess entity.Session, d *deps) *Actor {
	a := &Actor{
		id:      id,
		current: sess,
		deps:    d,
		stop:    make(chan struct{}),
	}
	if !sess.Status.Terminal() && d.sweepInterval > 0 {
		go a.sweep()
	}
	return a
}

// persistLocked saves the candidate record and, only on success, makes it the
// current one. A failed save is fatal to the mutating operation; the actor
// keeps the previous record so the mutation is never silently lost.
func (a *Actor) persistLocked(ctx context.Context, next entity.Session) (entity.Session, error) {
	if err := a.deps.store.Save(ctx, &next); err != nil {
		return a.current, err
	}
	a.current = next
	return next, nil
}

func (a *Actor) requireInProgressLocked() error {
	if a.current.Status != entity.StatusInProgress {
		return ErrInvalidStateTransition.Msg("session is " + string(a.current.Status) + ", not in_progress")
	}
	return nil
}

// start selects the initial question set and moves the session from pending
// to in_progress. Selection failures (an empty pool) fail the start.
func (a *Actor) start(ctx context.Context) (entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.Status != entity.StatusPending {
		return a.current, ErrInvalidStateTransition.Msg("session already started")
	}

	questions, err := a.deps.selector.Select(ctx, question.Request{
		Mode:       a.current.Mode,
		Job:        a.current.Job,
		Difficulty: a.current.Difficulty,
		Count:      a.deps.maxQuestions,
	})
	if err != nil {
		return a.current, err
	}

	next := a.current.WithStatus(entity.StatusInProgress)
	next.Questions = questions
	next.StartedAt = time.Now().UTC()
	return a.persistLocked(ctx, next)
}

// State returns the current session record.
func (a *Actor) State() entity.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// CurrentQuestion returns the active question, or nil when the session has
// advanced past its last question.
func (a *Actor) CurrentQuestion() *entity.Question {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current.CurrentQuestion()
}

// AnswerRequest is one candidate submission against the active question.
type AnswerRequest struct {
	Text         string
	ResponseTime time.Duration
	Code         *entity.CodeSubmission
}

// SubmitAnswer appends an answer to the active question. The session must be
// in_progress and a question must be active; submission does not advance the
// question index.
func (a *Actor) SubmitAnswer(ctx context.Context, req AnswerRequest) (entity.Session, entity.Answer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInProgressLocked(); err != nil {
		return a.current, entity.Answer{}, err
	}
	q := a.current.CurrentQuestion()
	if q == nil {
		return a.current, entity.Answer{}, ErrInvalidRequest.Msg("no question is active")
	}

	now := time.Now().UTC()
	answer := entity.Answer{
		QuestionID:   q.ID,
		Text:         req.Text,
		SubmittedAt:  now,
		ResponseTime: req.ResponseTime,
		Code:         req.Code,
	}
	next, err := a.persistLocked(ctx, a.current.WithAnswer(answer, now))
	if err != nil {
		return a.current, entity.Answer{}, err
	}
	return next, answer, nil
}

// NextQuestion advances the question index and returns the new active
// question. Advancing past the end is not an error; the question is nil from
// then on.
func (a *Actor) NextQuestion(ctx context.Context) (*entity.Question, entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInProgressLocked(); err != nil {
		return nil, a.current, err
	}
	next, err := a.persistLocked(ctx, a.current.WithNextQuestion())
	if err != nil {
		return nil, a.current, err
	}
	return next.CurrentQuestion(), next, nil
}

// ProcessChat answers a free-form candidate message in the interviewer's
// voice. A generation failure degrades to a fixed reply rather than failing
// the operation. An optional code draft replaces the session's scratch code.
func (a *Actor) ProcessChat(ctx context.Context, message, code string) (string, entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireInProgressLocked(); err != nil {
		return "", a.current, err
	}

	next := a.current
	if code != "" {
		next = next.WithCurrentCode(code)
	}

	reply := a.chatReply(ctx, next, message)
	now := time.Now().UTC()
	next = appendInteraction(next, message, reply, entity.ResponseChat, now)

	next, err := a.persistLocked(ctx, next)
	if err != nil {
		return "", a.current, err
	}
	return reply, next, nil
}

func (a *Actor) chatReply(ctx context.Context, sess entity.Session, message string) string {
	system := "You are a professional interviewer running a " + string(sess.Mode) +
		" mock interview for a " + sess.Job.Title + " position. " +
		"Answer the candidate's question briefly without giving the solution away."
	user := message
	if q := sess.CurrentQuestion(); q != nil {
		user = "Current question: " + q.Title + "\n\n" + message
	}
	if sess.CurrentCode != "" {
		user += "\n\nCandidate's current code:\n" + sess.CurrentCode
	}

	reply, err := a.deps.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages: []aigateway.Message{
			{Role: aigateway.RoleSystem, Content: system},
			{Role: aigateway.RoleUser, Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   512,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session", a.id.String()).Msg("chat generation failed, using fallback reply")
		return chatFallbackLine
	}
	return reply
}

// Complete finalizes the session: synthesize feedback once, attach it, and
// mark the session completed. Calling Complete on an already-terminal session
// returns the existing record without re-running synthesis.
func (a *Actor) Complete(ctx context.Context) (entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.Status.Terminal() {
		return a.current, nil
	}
	return a.completeLocked(ctx, entity.StatusCompleted)
}

func (a *Actor) completeLocked(ctx context.Context, status entity.SessionStatus) (entity.Session, error) {
	if !entity.CanTransition(a.current.Status, status) {
		return a.current, ErrInvalidStateTransition.Msg(
			"cannot move session from " + string(a.current.Status) + " to " + string(status))
	}

	fb := a.deps.synthesizer.Synthesize(ctx, a.current)
	next, err := a.persistLocked(ctx, a.current.WithFeedback(fb, status, time.Now().UTC()))
	if err != nil {
		return a.current, err
	}
	a.stopSweep()
	return next, nil
}

// Cancel abandons the session without feedback synthesis. Cancelling an
// already-cancelled session is a no-op.
func (a *Actor) Cancel(ctx context.Context) (entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.Status == entity.StatusCancelled {
		return a.current, nil
	}
	if !entity.CanTransition(a.current.Status, entity.StatusCancelled) {
		return a.current, ErrInvalidStateTransition.Msg(
			"cannot cancel a " + string(a.current.Status) + " session")
	}

	now := time.Now().UTC()
	next := a.current.WithStatus(entity.StatusCancelled)
	next.CompletedAt = &now
	next.Duration = now.Sub(next.StartedAt)

	next, err := a.persistLocked(ctx, next)
	if err != nil {
		return a.current, err
	}
	a.stopSweep()
	return next, nil
}

// stateUpdate is the set of fields a partial update may touch. Status and the
// append-only lists are deliberately absent: no update may flip the lifecycle
// state or rewrite history.
type stateUpdate struct {
	CurrentCode          *string `mapstructure:"currentCode"`
	CurrentQuestionIndex *int    `mapstructure:"currentQuestionIndex"`
	Difficulty           *string `mapstructure:"difficulty"`
}

// UpdateState merges arbitrary partial fields into the session. Unknown and
// malformed fields are ignored rather than failing the call; only
// persistence can fail it.
func (a *Actor) UpdateState(ctx context.Context, fields map[string]any) (entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var upd stateUpdate
	if err := mapstructure.WeakDecode(fields, &upd); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session", a.id.String()).Msg("ignoring unparseable state update")
		return a.current, nil
	}

	next := a.current
	if upd.CurrentCode != nil {
		next = next.WithCurrentCode(*upd.CurrentCode)
	}
	if upd.CurrentQuestionIndex != nil && *upd.CurrentQuestionIndex >= 0 {
		next.CurrentQuestionIndex = *upd.CurrentQuestionIndex
	}
	if upd.Difficulty != nil {
		next.Difficulty = *upd.Difficulty
	}
	return a.persistLocked(ctx, next)
}

// Transcript returns the session and its timestamp-ordered conversation view.
func (a *Actor) Transcript() (entity.Session, []entity.TranscriptEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, entity.BuildTranscript(a.current)
}

// RecordInteraction appends one conversational exchange to the session. It is
// fire-and-forget: the voice pipeline calls it after audio has already been
// delivered, so failures are logged, never surfaced.
func (a *Actor) RecordInteraction(ctx context.Context, userText, aiText string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	typ := entity.ResponseChat
	if userText == "" {
		typ = entity.ResponseGreeting
	}
	next := appendInteraction(a.current, userText, aiText, typ, time.Now().UTC())
	if _, err := a.persistLocked(ctx, next); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("session", a.id.String()).Msg("failed to record interaction")
	}
}

// appendInteraction adds the user side as a free note (no question reference,
// so it never feeds answer scoring) and the AI side as a response entry.
func appendInteraction(s entity.Session, userText, aiText string, typ entity.ResponseType, now time.Time) entity.Session {
	if userText != "" {
		s = s.WithAnswer(entity.Answer{Text: userText, SubmittedAt: now}, now)
	}
	if aiText != "" {
		s = s.WithResponse(entity.AIResponse{Type: typ, Content: aiText, GeneratedAt: now})
	}
	return s
}

// sweep is the per-actor expiry task. It never mutates state directly from
// the timer: expiry goes through the same guarded completion path as an
// explicit complete call, preserving the single-writer invariant.
func (a *Actor) sweep() {
	ticker := time.NewTicker(a.deps.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.expireIfStale()
		}
	}
}

func (a *Actor) expireIfStale() {
	ctx := context.Background()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.Status != entity.StatusInProgress {
		return
	}
	if time.Since(a.current.StartedAt) <= a.deps.maxAge {
		return
	}

	log.Info().Str("session", a.id.String()).Msg("session exceeded maximum age, completing as timeout")
	if _, err := a.completeLocked(ctx, entity.StatusTimeout); err != nil {
		log.Error().Err(err).Str("session", a.id.String()).Msg("timeout completion failed")
	}
}

func (a *Actor) stopSweep() {
	a.stopOnce.Do(func() { close(a.stop) })
}
