package entity

import "time"

// ResponseType tags the role an AI response played in the conversation.
type ResponseType string

const (
	ResponseGreeting      ResponseType = "greeting"
	ResponseFeedback      ResponseType = "feedback"
	ResponseHint          ResponseType = "hint"
	ResponseEvaluation    ResponseType = "evaluation"
	ResponseEncouragement ResponseType = "encouragement"
	ResponseChat          ResponseType = "chat"
)

// AIResponse is one conversational turn produced by the interviewer.
type AIResponse struct {
	Type        ResponseType `json:"type"`
	Content     string       `json:"content"`
	Sentiment   string       `json:"sentiment,omitempty"`
	Confidence  float64      `json:"confidence,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
	FollowUp    bool         `json:"followUp,omitempty"`
}
