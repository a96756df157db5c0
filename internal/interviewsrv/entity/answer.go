package entity

import "time"

// CodeSubmission is an optional code attachment on an answer.
type CodeSubmission struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Explanation string `json:"explanation,omitempty"`
}

// AnswerScores are per-answer derived scores on a 0-100 scale.
type AnswerScores struct {
	Completeness  float64 `json:"completeness"`
	Relevance     float64 `json:"relevance"`
	Communication float64 `json:"communication"`
}

// Answer is one candidate submission. Answers are append-only and never
// mutated after creation; they are superseded only by index advancement.
type Answer struct {
	QuestionID   string          `json:"questionId"`
	Text         string          `json:"text"`
	SubmittedAt  time.Time       `json:"submittedAt"`
	ResponseTime time.Duration   `json:"responseTime"`
	Code         *CodeSubmission `json:"code,omitempty"`
	Scores       *AnswerScores   `json:"scores,omitempty"`
}
