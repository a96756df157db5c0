package entity

import "time"

// QuestionType classifies what kind of response a question expects.
type QuestionType string

const (
	QuestionCoding       QuestionType = "coding"
	QuestionTheory       QuestionType = "theory"
	QuestionBehavioral   QuestionType = "behavioral"
	QuestionScenario     QuestionType = "scenario"
	QuestionSystemDesign QuestionType = "system_design"
)

// Technical reports whether answers to this question type feed the technical
// analysis during feedback synthesis.
func (t QuestionType) Technical() bool {
	return t == QuestionCoding || t == QuestionTheory || t == QuestionSystemDesign
}

// Question is immutable once selected into a session. A coding question may
// carry JudgeSlug, a reference to an external judge's canonical problem
// (code execution itself is out of scope).
type Question struct {
	ID            string        `json:"id"`
	Type          QuestionType  `json:"type"`
	Difficulty    string        `json:"difficulty"`
	Title         string        `json:"title"`
	Prompt        string        `json:"prompt"`
	Tags          []string      `json:"tags,omitempty"`
	Hints         []string      `json:"hints,omitempty"`
	EstimatedTime time.Duration `json:"estimatedTime,omitempty"`
	JudgeSlug     string        `json:"judgeSlug,omitempty"`
	Source        string        `json:"source,omitempty"`
	Popularity    int           `json:"popularity,omitempty"`
	SelectedAt    time.Time     `json:"selectedAt"`
}
