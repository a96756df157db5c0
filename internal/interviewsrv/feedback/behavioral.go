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

// starSchema validates the STAR component extraction reply.
var starSchema = llmjson.MustCompileSchema("star.json", `{
	"type": "object",
	"required": ["situation", "task", "action", "result"],
	"properties": {
		"situation": {"type": "string"},
		"task": {"type": "string"},
		"action": {"type": "string"},
		"result": {"type": "string"},
		"reflection": {"type": "string"}
	}
}`)

// competencySchema validates the behavioral competency scoring reply.
var competencySchema = llmjson.MustCompileSchema("competencies.json", `{
	"type": "object",
	"required": ["starQuality", "storytelling", "impact", "selfAwareness"],
	"properties": {
		"starQuality": {"type": "number", "minimum": 0, "maximum": 100},
		"storytelling": {"type": "number", "minimum": 0, "maximum": 100},
		"impact": {"type": "number", "minimum": 0, "maximum": 100},
		"selfAwareness": {"type": "number", "minimum": 0, "maximum": 100}
	}
}`)

// starComponents is the structured form of a behavioral answer.
type starComponents struct {
	Situation  string
	Task       string
	Action     string
	Result     string
	Reflection string
}

// analyzeBehavioral extracts STAR components from each behavioral answer and
// asks the gateway to score the four competencies. Returns nil when the
// session has no behavioral answers. Any parse failure substitutes a neutral
// 50 for all four competencies rather than failing synthesis.
func (s *Synthesizer) analyzeBehavioral(ctx context.Context, sess entity.Session) *entity.BehavioralScores {
	var answers []entity.Answer
	for _, a := range sess.Answers {
		q := sess.QuestionByID(a.QuestionID)
		if q != nil && q.Type == entity.QuestionBehavioral {
			answers = append(answers, a)
		}
	}
	if len(answers) == 0 {
		return nil
	}

	total := entity.BehavioralScores{}
	for _, a := range answers {
		star := s.extractSTAR(ctx, a.Text)
		scores := s.scoreCompetencies(ctx, star)
		total.STARQuality += scores.STARQuality
		total.Storytelling += scores.Storytelling
		total.Impact += scores.Impact
		total.SelfAwareness += scores.SelfAwareness
	}
	n := float64(len(answers))
	return &entity.BehavioralScores{
		STARQuality:   total.STARQuality / n,
		Storytelling:  total.Storytelling / n,
		Impact:        total.Impact / n,
		SelfAwareness: total.SelfAwareness / n,
	}
}

// extractSTAR structures a free-text behavioral answer. When extraction fails
// the whole answer is treated as one undifferentiated narrative so scoring
// can still proceed.
func (s *Synthesizer) extractSTAR(ctx context.Context, text string) starComponents {
	// already structured by the candidate
	if star, ok := labeledSTAR(text); ok {
		return star
	}

	prompt := fmt.Sprintf(
		"Extract the STAR components from this behavioral interview answer. "+
			"Use an empty string for a missing component.\n\nAnswer:\n%s\n\n"+
			"Reply with a JSON object: {\"situation\": string, \"task\": string, "+
			"\"action\": string, \"result\": string, \"reflection\": string}",
		text)

	reply, err := s.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages:    []aigateway.Message{{Role: aigateway.RoleUser, Content: prompt}},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err == nil {
		if obj, ok := llmjson.Object(reply, starSchema); ok {
			return starComponents{
				Situation:  obj.Get("situation").String(),
				Task:       obj.Get("task").String(),
				Action:     obj.Get("action").String(),
				Result:     obj.Get("result").String(),
				Reflection: obj.Get("reflection").String(),
			}
		}
	} else {
		log.Ctx(ctx).Warn().Err(err).Msg("STAR extraction failed, scoring raw answer")
	}
	return starComponents{Action: text}
}

// labeledSTAR recognizes answers the candidate already structured with
// "Situation:", "Task:", etc. section labels.
func labeledSTAR(text string) (starComponents, bool) {
	sections := map[string]*string{}
	star := starComponents{}
	sections["situation"] = &star.Situation
	sections["task"] = &star.Task
	sections["action"] = &star.Action
	sections["result"] = &star.Result
	sections["reflection"] = &star.Reflection

	var current *string
	found := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		matched := false
		for label, dst := range sections {
			if strings.HasPrefix(lower, label+":") {
				*dst = strings.TrimSpace(trimmed[len(label)+1:])
				current = dst
				found++
				matched = true
				break
			}
		}
		if !matched && current != nil && trimmed != "" {
			*current += "\n" + trimmed
		}
	}
	return star, found >= 3
}

// scoreCompetencies asks the gateway for the four behavioral competency
// scores. Failure or an unparseable reply yields a neutral 50 across the
// board.
func (s *Synthesizer) scoreCompetencies(ctx context.Context, star starComponents) entity.BehavioralScores {
	neutral := entity.BehavioralScores{
		STARQuality:   neutralScore,
		Storytelling:  neutralScore,
		Impact:        neutralScore,
		SelfAwareness: neutralScore,
	}

	prompt := fmt.Sprintf(
		"Score this behavioral interview answer on four 0-100 competencies: "+
			"STAR structure quality, storytelling, impact demonstration, self-awareness.\n\n"+
			"Situation: %s\nTask: %s\nAction: %s\nResult: %s\nReflection: %s\n\n"+
			"Reply with a JSON object: {\"starQuality\": number, \"storytelling\": number, "+
			"\"impact\": number, \"selfAwareness\": number}",
		star.Situation, star.Task, star.Action, star.Result, star.Reflection)

	reply, err := s.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages:    []aigateway.Message{{Role: aigateway.RoleUser, Content: prompt}},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("competency scoring failed, using neutral scores")
		return neutral
	}
	obj, ok := llmjson.Object(reply, competencySchema)
	if !ok {
		log.Ctx(ctx).Warn().Msg("competency scores did not parse, using neutral scores")
		return neutral
	}
	return entity.BehavioralScores{
		STARQuality:   obj.Get("starQuality").Float(),
		Storytelling:  obj.Get("storytelling").Float(),
		Impact:        obj.Get("impact").Float(),
		SelfAwareness: obj.Get("selfAwareness").Float(),
	}
}
