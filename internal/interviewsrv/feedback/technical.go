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

// answerScoresSchema validates the per-answer scoring reply.
var answerScoresSchema = llmjson.MustCompileSchema("answerscores.json", `{
	"type": "object",
	"required": ["completeness", "relevance", "communication"],
	"properties": {
		"completeness": {"type": "number", "minimum": 0, "maximum": 100},
		"relevance": {"type": "number", "minimum": 0, "maximum": 100},
		"communication": {"type": "number", "minimum": 0, "maximum": 100}
	}
}`)

// technicalResult aggregates the technical analysis over all answers to
// coding, theory, and system-design questions.
type technicalResult struct {
	Technical      float64
	ProblemSolving float64
	Evidence       []string
}

// structureKeywords signal a stepwise approach explanation.
var structureKeywords = []string{"first", "then", "finally", "next", "step", "after that"}

// complexityKeywords signal an explicit complexity analysis.
var complexityKeywords = []string{"o(", "complexity", "logarithmic", "linear time", "constant time", "quadratic"}

// analyzeTechnical scores the answers to technical questions. Each answer's
// completeness/relevance/communication scores are averaged, then refined by
// the structure and complexity heuristics into the problem-solving score.
// With no technical answers every dimension is neutral.
func (s *Synthesizer) analyzeTechnical(ctx context.Context, sess entity.Session) technicalResult {
	var (
		texts    []string
		evidence []string
		sumBase  float64
		sumTech  float64
		n        int
	)
	for _, a := range sess.Answers {
		q := sess.QuestionByID(a.QuestionID)
		if q == nil || !q.Type.Technical() {
			continue
		}
		scores := s.answerScores(ctx, *q, a)
		sumBase += (scores.Completeness + scores.Relevance + scores.Communication) / 3
		sumTech += (scores.Completeness + scores.Relevance) / 2
		texts = append(texts, answerText(a))
		evidence = append(evidence, q.Title)
		n++
	}
	if n == 0 {
		return technicalResult{Technical: neutralScore, ProblemSolving: neutralScore}
	}

	base := sumBase / float64(n)
	structure := keywordScore(texts, structureKeywords, 2)
	complexity := keywordScore(texts, complexityKeywords, 1)

	return technicalResult{
		Technical:      sumTech / float64(n),
		ProblemSolving: 0.6*base + 0.2*structure + 0.2*complexity,
		Evidence:       evidence,
	}
}

// communicationScore averages the communication dimension over every answer
// in the session, regardless of question type.
func (s *Synthesizer) communicationScore(ctx context.Context, sess entity.Session) float64 {
	var sum float64
	var n int
	for _, a := range sess.Answers {
		q := sess.QuestionByID(a.QuestionID)
		if q == nil {
			continue
		}
		sum += s.answerScores(ctx, *q, a).Communication
		n++
	}
	if n == 0 {
		return neutralScore
	}
	return sum / float64(n)
}

// answerScores returns the stored scores for an answer, asking the gateway to
// score it when none were recorded. A failed or unparseable scoring call
// yields neutral scores rather than failing synthesis.
func (s *Synthesizer) answerScores(ctx context.Context, q entity.Question, a entity.Answer) entity.AnswerScores {
	if a.Scores != nil {
		return *a.Scores
	}

	prompt := fmt.Sprintf(
		"Score this interview answer on three 0-100 dimensions.\n\n"+
			"Question: %s\n%s\n\nAnswer:\n%s\n\n"+
			"Reply with a JSON object: {\"completeness\": number, \"relevance\": number, \"communication\": number}",
		q.Title, q.Prompt, answerText(a))

	reply, err := s.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages:    []aigateway.Message{{Role: aigateway.RoleUser, Content: prompt}},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("question", q.ID).Msg("answer scoring failed, using neutral scores")
		return neutralScores()
	}
	obj, ok := llmjson.Object(reply, answerScoresSchema)
	if !ok {
		log.Ctx(ctx).Warn().Str("question", q.ID).Msg("answer scores did not parse, using neutral scores")
		return neutralScores()
	}
	return entity.AnswerScores{
		Completeness:  obj.Get("completeness").Float(),
		Relevance:     obj.Get("relevance").Float(),
		Communication: obj.Get("communication").Float(),
	}
}

func neutralScores() entity.AnswerScores {
	return entity.AnswerScores{
		Completeness:  neutralScore,
		Relevance:     neutralScore,
		Communication: neutralScore,
	}
}

// answerText joins the free-text answer with any code explanation so the
// heuristics see the whole approach description.
func answerText(a entity.Answer) string {
	if a.Code != nil && a.Code.Explanation != "" {
		return a.Text + "\n" + a.Code.Explanation
	}
	return a.Text
}

// keywordScore returns the percentage of texts containing at least minHits
// distinct keywords.
func keywordScore(texts, keywords []string, minHits int) float64 {
	if len(texts) == 0 {
		return 0
	}
	matched := 0
	for _, text := range texts {
		lower := strings.ToLower(text)
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits >= minHits {
			matched++
		}
	}
	return 100 * float64(matched) / float64(len(texts))
}
