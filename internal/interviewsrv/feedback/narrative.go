package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/prepstage/prepstage/internal/common/llmjson"
	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
)

// narrativeKind selects which free-text section a narrative call produces.
type narrativeKind int

const (
	narrativeStrengths narrativeKind = iota
	narrativeImprovements
	narrativeRecommendations
)

func (k narrativeKind) ask() string {
	switch k {
	case narrativeStrengths:
		return "List the candidate's 2-4 strongest points in this interview."
	case narrativeImprovements:
		return "List the 2-4 areas where the candidate most needs to improve."
	default:
		return "List 2-4 specific, actionable recommendations for the candidate's preparation."
	}
}

// fallback returns the fixed list substituted when the call fails or its
// reply cannot be parsed.
func (k narrativeKind) fallback() []string {
	switch k {
	case narrativeStrengths:
		return []string{
			"Completed the interview session",
			"Engaged with the questions presented",
		}
	case narrativeImprovements:
		return []string{
			"Practice structuring answers before responding",
			"Provide more specific examples and detail",
		}
	default:
		return []string{
			"Review fundamentals for the target role",
			"Practice with timed mock interviews",
			"Prepare stories using the STAR structure",
		}
	}
}

// narrative runs one independent free-text analysis call. Any failure falls
// back to the fixed list for that section; the section is never empty.
func (s *Synthesizer) narrative(ctx context.Context, sess entity.Session, kind narrativeKind) []string {
	prompt := fmt.Sprintf(
		"%s\n\nInterview mode: %s\nRole: %s %s\n\nTranscript:\n%s\n\n"+
			"Reply with a JSON array of short strings.",
		kind.ask(), sess.Mode, sess.Job.Seniority, sess.Job.Title, transcriptDigest(sess))

	reply, err := s.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages:    []aigateway.Message{{Role: aigateway.RoleUser, Content: prompt}},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int("kind", int(kind)).Msg("narrative generation failed, using fallback list")
		return kind.fallback()
	}
	items := llmjson.StringList(reply)
	if len(items) == 0 {
		log.Ctx(ctx).Warn().Int("kind", int(kind)).Msg("narrative reply did not parse, using fallback list")
		return kind.fallback()
	}
	return items
}

// transcriptDigest renders the question/answer pairs compactly for narrative
// prompts, truncating long answers.
func transcriptDigest(sess entity.Session) string {
	var b strings.Builder
	for _, a := range sess.Answers {
		q := sess.QuestionByID(a.QuestionID)
		if q == nil {
			continue
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", q.Title, truncate(a.Text, 600))
	}
	if b.Len() == 0 {
		return "(no answers were submitted)"
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
