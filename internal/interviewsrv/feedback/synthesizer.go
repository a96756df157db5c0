// Package feedback turns a finished session into a scored, structured report.
// The synthesis pipeline is a chain of independent, individually-fallible AI
// analyses combined by fixed formulas; every sub-call has a documented
// deterministic fallback, so the pipeline always terminates with a complete
// Feedback no matter how the gateway behaves.
package feedback

import (
	"context"
	"time"

	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
)

// Mode weights for the overall score. These are design decisions, not derived
// values, and must stay fixed for comparability across sessions.
const (
	techWeightTechnical      = 0.5
	techWeightProblemSolving = 0.3
	techWeightCommunication  = 0.2

	behWeightCompetency    = 0.6
	behWeightCommunication = 0.4

	mixedWeightTechnical      = 0.3
	mixedWeightCompetency     = 0.3
	mixedWeightProblemSolving = 0.2
	mixedWeightCommunication  = 0.2
)

// neutralScore substitutes for any dimension the pipeline could not assess.
const neutralScore = 50.0

// Synthesizer runs the feedback pipeline. It is stateless and safe for
// concurrent use across sessions.
type Synthesizer struct {
	gateway     aigateway.Gateway
	temperature float64
	maxTokens   int64
	now         func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithGeneration overrides the sampling bounds used for analysis calls.
func WithGeneration(temperature float64, maxTokens int64) Option {
	return func(s *Synthesizer) {
		s.temperature = temperature
		s.maxTokens = maxTokens
	}
}

// WithClock overrides the feedback timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// NewSynthesizer returns a Synthesizer using the given gateway for all
// analysis calls.
func NewSynthesizer(gateway aigateway.Gateway, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		gateway:     gateway,
		temperature: 0.3,
		maxTokens:   512,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize produces the final feedback for a session. It never returns an
// error: each stage degrades to its documented default, and partial failure
// still yields an internally consistent report.
func (s *Synthesizer) Synthesize(ctx context.Context, sess entity.Session) entity.Feedback {
	tech := s.analyzeTechnical(ctx, sess)
	behavioral := s.analyzeBehavioral(ctx, sess)
	comm := s.communicationScore(ctx, sess)

	overall := overallScore(sess.Mode, tech, behavioral, comm)

	fb := entity.Feedback{
		OverallScore:     overall,
		Skills:           s.skills(sess.Mode, tech, behavioral, comm, len(sess.Answers)),
		Behavioral:       behavioral,
		Strengths:        s.narrative(ctx, sess, narrativeStrengths),
		ImprovementAreas: s.narrative(ctx, sess, narrativeImprovements),
		Recommendations:  s.narrative(ctx, sess, narrativeRecommendations),
		Percentile:       Percentile(overall),
		GeneratedAt:      s.now(),
	}
	return fb
}

// overallScore applies the fixed per-mode weighting.
func overallScore(mode entity.InterviewMode, tech technicalResult, behavioral *entity.BehavioralScores, comm float64) float64 {
	behAvg := neutralScore
	if behavioral != nil {
		behAvg = behavioral.Average()
	}
	switch mode {
	case entity.ModeBehavioral:
		return behWeightCompetency*behAvg + behWeightCommunication*comm
	case entity.ModeMixed:
		return mixedWeightTechnical*tech.Technical +
			mixedWeightCompetency*behAvg +
			mixedWeightProblemSolving*tech.ProblemSolving +
			mixedWeightCommunication*comm
	default:
		return techWeightTechnical*tech.Technical +
			techWeightProblemSolving*tech.ProblemSolving +
			techWeightCommunication*comm
	}
}

// Percentile maps an overall score to an estimated percentile rank. This is a
// fixed step function, an intentionally crude placeholder rather than a real
// population comparison.
func Percentile(score float64) int {
	switch {
	case score >= 90:
		return 95
	case score >= 80:
		return 85
	case score >= 70:
		return 75
	case score >= 60:
		return 65
	case score >= 50:
		return 50
	default:
		return 30
	}
}

// skills builds the per-dimension assessments for the report. Confidence
// scales with how much material the pipeline had to work with.
func (s *Synthesizer) skills(mode entity.InterviewMode, tech technicalResult, behavioral *entity.BehavioralScores, comm float64, answered int) []entity.SkillAssessment {
	confidence := float64(answered) / 3
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0.3 {
		confidence = 0.3
	}

	assess := func(skill string, score float64, evidence []string) entity.SkillAssessment {
		return entity.SkillAssessment{
			Skill:      skill,
			Score:      score,
			Level:      entity.LevelForScore(score),
			Confidence: confidence,
			Evidence:   evidence,
		}
	}

	var skills []entity.SkillAssessment
	if mode != entity.ModeBehavioral {
		skills = append(skills,
			assess("technical_knowledge", tech.Technical, tech.Evidence),
			assess("problem_solving", tech.ProblemSolving, nil),
		)
	}
	if behavioral != nil {
		skills = append(skills, assess("star_method", behavioral.STARQuality, nil))
	}
	skills = append(skills, assess("communication", comm, nil))
	return skills
}
