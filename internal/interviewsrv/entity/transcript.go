package entity

import (
	"sort"
	"time"
)

// TranscriptKind identifies the origin of a transcript entry.
type TranscriptKind string

const (
	EntryQuestion TranscriptKind = "question"
	EntryAnswer   TranscriptKind = "answer"
	EntryResponse TranscriptKind = "ai_response"
)

// TranscriptEntry is one row of the derived conversation view.
type TranscriptEntry struct {
	Kind      TranscriptKind `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Speaker   string         `json:"speaker"`
	Content   string         `json:"content"`
	Ref       string         `json:"ref,omitempty"` // question id for questions and answers
}

// kindRank fixes the order for entries sharing a timestamp:
// question before answer before AI response.
var kindRank = map[TranscriptKind]int{
	EntryQuestion: 0,
	EntryAnswer:   1,
	EntryResponse: 2,
}

// BuildTranscript merges the session's questions, answers, and AI responses
// into a single timestamp-ordered view. The sort is stable so replay order is
// deterministic regardless of insertion order into the underlying lists.
func BuildTranscript(s Session) []TranscriptEntry {
	entries := make([]TranscriptEntry, 0, len(s.Questions)+len(s.Answers)+len(s.Responses))
	for _, q := range s.Questions {
		entries = append(entries, TranscriptEntry{
			Kind:      EntryQuestion,
			Timestamp: q.SelectedAt,
			Speaker:   "interviewer",
			Content:   q.Prompt,
			Ref:       q.ID,
		})
	}
	for _, a := range s.Answers {
		entries = append(entries, TranscriptEntry{
			Kind:      EntryAnswer,
			Timestamp: a.SubmittedAt,
			Speaker:   "candidate",
			Content:   a.Text,
			Ref:       a.QuestionID,
		})
	}
	for _, r := range s.Responses {
		entries = append(entries, TranscriptEntry{
			Kind:      EntryResponse,
			Timestamp: r.GeneratedAt,
			Speaker:   "interviewer",
			Content:   r.Content,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return kindRank[entries[i].Kind] < kindRank[entries[j].Kind]
		}
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}
