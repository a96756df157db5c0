package question

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prepstage/prepstage/internal/common/llmjson"
	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
)

// behavioralSchema validates the generated question shape before any looser
// extraction is attempted.
var behavioralSchema = llmjson.MustCompileSchema("behavioral.json", `{
	"type": "object",
	"required": ["title", "text"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"text": {"type": "string", "minLength": 1},
		"tags": {"type": "array", "items": {"type": "string"}},
		"hints": {"type": "array", "items": {"type": "string"}}
	}
}`)

// fallbackBehavioral is the hand-authored question substituted when
// generation or parsing fails, so session start never fails for lack of
// content.
func fallbackBehavioral(now time.Time) entity.Question {
	return entity.Question{
		ID:         "behavioral-fallback",
		Type:       entity.QuestionBehavioral,
		Difficulty: "medium",
		Title:      "Overcoming a Challenge",
		Prompt: "Tell me about a time you faced a significant challenge on a project. " +
			"What was the situation, what did you do, and what was the outcome?",
		Tags:          []string{"challenge", "problem-solving"},
		Hints:         []string{"Structure your answer: situation, task, action, result."},
		EstimatedTime: 10 * time.Minute,
		Source:        "built-in",
		SelectedAt:    now,
	}
}

// SelectBehavioral generates one scenario question conditioned on the job
// context. Generation and parse failures substitute the fixed fallback
// question.
func (s *Selector) SelectBehavioral(ctx context.Context, job entity.JobContext) entity.Question {
	now := time.Now().UTC()

	prompt := fmt.Sprintf(
		"Generate one behavioral interview question for a %s %s candidate.\n"+
			"Job title: %s\nJob description: %s\n\n"+
			"Reply with a JSON object: {\"title\": string, \"text\": string, "+
			"\"tags\": [string], \"hints\": [string]}",
		job.Seniority, job.Type, job.Title, job.Description)

	reply, err := s.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages:    []aigateway.Message{{Role: aigateway.RoleUser, Content: prompt}},
		Temperature: 0.8,
		MaxTokens:   512,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("behavioral generation failed, using fallback question")
		return fallbackBehavioral(now)
	}

	obj, ok := llmjson.Object(reply, behavioralSchema)
	if !ok {
		log.Ctx(ctx).Warn().Msg("behavioral question did not parse, using fallback question")
		return fallbackBehavioral(now)
	}

	q := entity.Question{
		ID:            "behavioral-" + now.Format("20060102150405"),
		Type:          entity.QuestionBehavioral,
		Difficulty:    "medium",
		Title:         obj.Get("title").String(),
		Prompt:        obj.Get("text").String(),
		EstimatedTime: 10 * time.Minute,
		Source:        "generated",
		SelectedAt:    now,
	}
	for _, tag := range obj.Get("tags").Array() {
		q.Tags = append(q.Tags, tag.String())
	}
	for _, hint := range obj.Get("hints").Array() {
		q.Hints = append(q.Hints, hint.String())
	}
	return q
}
