package question

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prepstage/prepstage/internal/common/llmjson"
	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
)

// Selector picks questions for a new session. The AI gateway call is an
// enrichment: when it fails or returns nothing usable, selection falls back
// to uniform random picks from the candidate pool.
type Selector struct {
	gateway      aigateway.Gateway
	pool         *Pool
	candidateCap int
	rng          *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithCandidateCap bounds the candidate pool offered to the AI gateway.
func WithCandidateCap(cap int) Option {
	return func(s *Selector) { s.candidateCap = cap }
}

// WithRandSource sets the random source used for fallback selection.
// Tests inject a seeded source for deterministic trials.
func WithRandSource(src rand.Source) Option {
	return func(s *Selector) { s.rng = rand.New(src) }
}

// NewSelector creates a Selector over the given gateway and pool.
func NewSelector(gateway aigateway.Gateway, pool *Pool, opts ...Option) *Selector {
	s := &Selector{
		gateway:      gateway,
		pool:         pool,
		candidateCap: 50,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes what to select.
type Request struct {
	Mode       entity.InterviewMode
	Job        entity.JobContext
	Difficulty string
	Count      int // number of questions, clamped to 1..3
}

// Select returns the initial question set for a session. Technical mode draws
// from the pool; behavioral mode generates a single question; mixed mode
// draws technical questions and appends one behavioral question.
func (s *Selector) Select(ctx context.Context, req Request) ([]entity.Question, error) {
	count := req.Count
	if count < 1 {
		count = 1
	}
	if count > 3 {
		count = 3
	}

	switch req.Mode {
	case entity.ModeBehavioral:
		q := s.SelectBehavioral(ctx, req.Job)
		return []entity.Question{q}, nil
	case entity.ModeMixed:
		technicalCount := count - 1
		if technicalCount < 1 {
			technicalCount = 1
		}
		questions, err := s.SelectTechnical(ctx, req.Job, req.Difficulty, technicalCount)
		if err != nil {
			return nil, err
		}
		return append(questions, s.SelectBehavioral(ctx, req.Job)), nil
	default:
		return s.SelectTechnical(ctx, req.Job, req.Difficulty, count)
	}
}

// SelectTechnical picks count questions from the pool. The AI gateway chooses
// ids suited to the job context; parse failures and unresolvable ids are
// dropped silently, and an unusable AI result falls back to uniform random
// selection from the candidate pool.
func (s *Selector) SelectTechnical(ctx context.Context, job entity.JobContext, difficulty string, count int) ([]entity.Question, error) {
	entries, err := s.pool.Essentials(ctx)
	if err != nil {
		return nil, err
	}

	candidates := filterDifficulty(entries, difficulty)
	if len(candidates) == 0 {
		// fall back to the unfiltered pool rather than failing the session
		candidates = entries
	}
	if len(candidates) > s.candidateCap {
		candidates = candidates[:s.candidateCap]
	}

	ids := s.askForIDs(ctx, job, candidates, count)
	now := time.Now().UTC()

	questions := s.resolveAll(ctx, ids, now)
	if len(questions) == 0 {
		questions = s.resolveAll(ctx, s.randomIDs(candidates, count), now)
	}
	if len(questions) == 0 {
		return nil, ErrEmptyPool.Msg("no candidate question could be resolved")
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

// askForIDs asks the gateway to choose question ids. Returns nil when the
// call fails or produces nothing usable.
func (s *Selector) askForIDs(ctx context.Context, job entity.JobContext, candidates []IndexEntry, count int) []string {
	var sb strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- id %s: %s (%s; topics: %s)\n", c.ID, c.Title, c.Difficulty, strings.Join(c.Topics, ", "))
	}

	prompt := fmt.Sprintf(
		"You are selecting interview questions for a %s %s candidate.\n"+
			"Job title: %s\nJob description: %s\n\n"+
			"Pick the %d most appropriate question ids from this list, considering topic variety "+
			"so the candidate is not asked near-duplicate questions.\n\n%s\n"+
			"Reply with a JSON array of ids only.",
		job.Seniority, job.Type, job.Title, job.Description, count, sb.String())

	reply, err := s.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages:  []aigateway.Message{{Role: aigateway.RoleUser, Content: prompt}},
		MaxTokens: 256,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("ai question pick failed, using random fallback")
		return nil
	}

	ids := llmjson.StringList(reply)
	valid := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		valid[c.ID] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := valid[id]; ok {
			out = append(out, id)
		}
	}
	if len(out) > count {
		out = out[:count]
	}
	return out
}

func (s *Selector) resolveAll(ctx context.Context, ids []string, now time.Time) []entity.Question {
	var questions []entity.Question
	for _, id := range ids {
		q, err := s.pool.Resolve(ctx, id, now)
		if err != nil {
			log.Ctx(ctx).Warn().Str("question_id", id).Err(err).Msg("unable to resolve question")
			continue
		}
		if q == nil {
			log.Ctx(ctx).Warn().Str("question_id", id).Msg("question id did not resolve, skipping")
			continue
		}
		questions = append(questions, *q)
	}
	return questions
}

// randomIDs picks count distinct ids uniformly from the candidates.
func (s *Selector) randomIDs(candidates []IndexEntry, count int) []string {
	if count > len(candidates) {
		count = len(candidates)
	}
	perm := s.rng.Perm(len(candidates))
	ids := make([]string, 0, count)
	for _, idx := range perm[:count] {
		ids = append(ids, candidates[idx].ID)
	}
	return ids
}

func filterDifficulty(entries []IndexEntry, difficulty string) []IndexEntry {
	if difficulty == "" {
		return entries
	}
	want := strings.ToLower(difficulty)
	var out []IndexEntry
	for _, e := range entries {
		if e.Difficulty == want {
			out = append(out, e)
		}
	}
	return out
}
