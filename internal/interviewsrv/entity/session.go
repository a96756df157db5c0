// Package entity defines the interview domain records: Session, Question, Answer,
// AIResponse, and Feedback. Records are immutable values; "updates" are pure
// functions returning a new record. The session actor holds the single mutable
// reference to the current Session value.
package entity

import (
	"time"

	"github.com/prepstage/prepstage/internal/common/uuid"
)

// InterviewMode selects the question-selection and scoring strategy.
type InterviewMode string

const (
	ModeTechnical  InterviewMode = "technical"
	ModeBehavioral InterviewMode = "behavioral"
	ModeMixed      InterviewMode = "mixed"
)

// IsValidMode reports whether mode is one of the supported interview modes.
func IsValidMode(mode InterviewMode) bool {
	switch mode {
	case ModeTechnical, ModeBehavioral, ModeMixed:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusCancelled  SessionStatus = "cancelled"
	StatusTimeout    SessionStatus = "timeout"
)

// Terminal reports whether the status is a terminal lifecycle state.
// No transition ever leaves a terminal state.
func (s SessionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusTimeout:
		return true
	}
	return false
}

// validTransitions encodes the one-directional lifecycle:
// pending -> in_progress -> {completed | cancelled | timeout}.
var validTransitions = map[SessionStatus][]SessionStatus{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusTimeout},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to SessionStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// JobContext describes the position the candidate is interviewing for.
type JobContext struct {
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Seniority   string `json:"seniority,omitempty"`
}

// Session is the aggregate root for one interview attempt. Questions are
// presented in selection order; Answers and Responses are append-only.
type Session struct {
	ID                   uuid.UUID     `json:"id"`
	UserID               string        `json:"userId"`
	Mode                 InterviewMode `json:"mode"`
	Job                  JobContext    `json:"job"`
	Difficulty           string        `json:"difficulty"`
	Status               SessionStatus `json:"status"`
	CreatedAt            time.Time     `json:"createdAt"`
	StartedAt            time.Time     `json:"startedAt"`
	CompletedAt          *time.Time    `json:"completedAt,omitempty"`
	Duration             time.Duration `json:"duration"`
	PlannedDuration      time.Duration `json:"plannedDuration,omitempty"`
	Questions            []Question    `json:"questions"`
	Answers              []Answer      `json:"answers"`
	Responses            []AIResponse  `json:"responses"`
	Feedback             *Feedback     `json:"feedback,omitempty"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	CurrentCode          string        `json:"currentCode,omitempty"`
}

// CurrentQuestion returns the question at the current index, or nil when the
// index has advanced past the last question. Running out of questions is an
// end-of-set signal, not an error.
func (s Session) CurrentQuestion() *Question {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return nil
	}
	q := s.Questions[s.CurrentQuestionIndex]
	return &q
}

// QuestionByID returns the question with the given id, or nil.
func (s Session) QuestionByID(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			q := s.Questions[i]
			return &q
		}
	}
	return nil
}

// WithStatus returns a copy of the session with the given status. Transition
// validity is the caller's responsibility; the actor checks CanTransition
// before applying.
func (s Session) WithStatus(status SessionStatus) Session {
	s.Status = status
	return s
}

// WithAnswer returns a copy with the answer appended and duration recomputed
// from StartedAt.
func (s Session) WithAnswer(a Answer, now time.Time) Session {
	s.Answers = append(append([]Answer{}, s.Answers...), a)
	s.Duration = now.Sub(s.StartedAt)
	return s
}

// WithResponse returns a copy with the AI response appended.
func (s Session) WithResponse(r AIResponse) Session {
	s.Responses = append(append([]AIResponse{}, s.Responses...), r)
	return s
}

// WithNextQuestion returns a copy with the question index advanced by one.
// The index may advance past the end of the question list.
func (s Session) WithNextQuestion() Session {
	s.CurrentQuestionIndex++
	return s
}

// WithFeedback returns a copy carrying the final feedback, a completion
// timestamp, the final duration, and the given terminal status.
func (s Session) WithFeedback(f Feedback, status SessionStatus, now time.Time) Session {
	s.Feedback = &f
	s.CompletedAt = &now
	s.Duration = now.Sub(s.StartedAt)
	s.Status = status
	return s
}

// WithCurrentCode returns a copy with the scratch code draft replaced.
func (s Session) WithCurrentCode(code string) Session {
	s.CurrentCode = code
	return s
}
