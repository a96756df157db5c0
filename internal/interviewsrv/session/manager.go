package session

import (
	"context"
	"sync"
	"time"

	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
	"github.com/prepstage/prepstage/internal/interviewsrv/feedback"
	"github.com/prepstage/prepstage/internal/interviewsrv/question"
	"github.com/prepstage/prepstage/internal/interviewsrv/sessionstore"
)

// ManagerOptions bound the session lifecycle.
type ManagerOptions struct {
	MaxQuestions  int
	MaxAge        time.Duration
	SweepInterval time.Duration
}

// Manager is the actor registry, keyed by session id. Actors are created on
// start and re-hydrated from the store on first access after a restart.
type Manager struct {
	mu     sync.RWMutex
	actors map[uuid.UUID]*Actor
	deps   *deps
}

// NewManager wires the session collaborators into a registry.
func NewManager(store sessionstore.Store, selector *question.Selector, synthesizer *feedback.Synthesizer, gateway aigateway.Gateway, opts ManagerOptions) *Manager {
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = 3
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 120 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Minute
	}
	return &Manager{
		actors: make(map[uuid.UUID]*Actor),
		deps: &deps{
			store:         store,
			selector:      selector,
			synthesizer:   synthesizer,
			gateway:       gateway,
			maxQuestions:  opts.MaxQuestions,
			maxAge:        opts.MaxAge,
			sweepInterval: opts.SweepInterval,
		},
	}
}

// StartRequest describes a new interview session.
type StartRequest struct {
	UserID          string
	Mode            entity.InterviewMode
	Job             entity.JobContext
	Difficulty      string
	PlannedDuration time.Duration
}

// StartSession creates a session, selects its questions, and moves it to
// in_progress. The actor is registered only once the start has persisted, so
// a failed start leaves no half-initialized session behind.
func (m *Manager) StartSession(ctx context.Context, req StartRequest) (entity.Session, error) {
	if req.UserID == "" {
		return entity.Session{}, ErrInvalidRequest.Msg("userId is required")
	}
	if req.Mode == "" {
		req.Mode = entity.ModeTechnical
	}
	if !entity.IsValidMode(req.Mode) {
		return entity.Session{}, ErrInvalidRequest.Msg("unsupported interview mode: " + string(req.Mode))
	}

	now := time.Now().UTC()
	sess := entity.Session{
		ID:              uuid.New(),
		UserID:          req.UserID,
		Mode:            req.Mode,
		Job:             req.Job,
		Difficulty:      req.Difficulty,
		Status:          entity.StatusPending,
		CreatedAt:       now,
		PlannedDuration: req.PlannedDuration,
	}

	actor := newActor(sess.ID, sess, m.deps)
	started, err := actor.start(ctx)
	if err != nil {
		actor.stopSweep()
		return entity.Session{}, err
	}

	m.mu.Lock()
	m.actors[sess.ID] = actor
	m.mu.Unlock()
	return started, nil
}

// Get returns the actor for a session id, loading persisted state on first
// access. The load happens under the registry write lock, so no operation is
// admitted against the session before its prior state is visible.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Actor, error) {
	m.mu.RLock()
	actor, ok := m.actors[id]
	m.mu.RUnlock()
	if ok {
		return actor, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if actor, ok := m.actors[id]; ok {
		return actor, nil
	}

	sess, err := m.deps.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound.Msg("no session with id " + id.String())
	}

	actor = newActor(id, *sess, m.deps)
	m.actors[id] = actor
	return actor, nil
}

// Close stops every actor's background sweeper.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, actor := range m.actors {
		actor.stopSweep()
	}
}
