// Package question selects interview questions for a session. Technical
// questions come from a key-value question pool with an AI-assisted pick;
// behavioral questions are generated on the fly. Both strategies degrade to
// deterministic fallbacks so that session start never fails for lack of
// content.
package question

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/prepstage/prepstage/internal/common/apperrors"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
	"github.com/prepstage/prepstage/internal/interviewsrv/kvstore"
)

const (
	// EssentialsKey holds the compact question-pool index.
	EssentialsKey = "essentials"
	// ProblemKeyPrefix prefixes per-id full question records.
	ProblemKeyPrefix = "problem:"
)

var (
	// ErrSelection is the base error for question selection failures.
	ErrSelection apperrors.Error = apperrors.New("question selection error").
			SetStatusCode(http.StatusInternalServerError).
			SetCode("GENERATION_FAILURE")

	// ErrEmptyPool is returned when the question pool has no usable entries.
	ErrEmptyPool apperrors.Error = ErrSelection.New("question pool is empty").
			SetCode("EMPTY_QUESTION_POOL")
)

// IndexEntry is one row of the essentials index.
type IndexEntry struct {
	ID         string
	Title      string
	Difficulty string
	Topics     []string
}

// Pool reads the question pool from a key-value store. The pool is externally
// owned; the engine never writes to it outside of the seed tooling.
type Pool struct {
	kv kvstore.KV
}

// NewPool creates a Pool over the given key-value store.
func NewPool(kv kvstore.KV) *Pool {
	return &Pool{kv: kv}
}

// Essentials fetches and parses the compact index.
func (p *Pool) Essentials(ctx context.Context) ([]IndexEntry, error) {
	raw, err := p.kv.Get(ctx, EssentialsKey)
	if err != nil {
		return nil, ErrSelection.MsgErr("unable to read essentials index", err)
	}
	if raw == nil {
		return nil, ErrEmptyPool
	}
	var entries []IndexEntry
	gjson.GetBytes(raw, "problems").ForEach(func(_, item gjson.Result) bool {
		entry := IndexEntry{
			ID:         item.Get("id").String(),
			Title:      item.Get("title").String(),
			Difficulty: strings.ToLower(item.Get("difficulty").String()),
		}
		for _, topic := range item.Get("topics").Array() {
			entry.Topics = append(entry.Topics, topic.String())
		}
		if entry.ID != "" {
			entries = append(entries, entry)
		}
		return true
	})
	if len(entries) == 0 {
		return nil, ErrEmptyPool
	}
	return entries, nil
}

// Resolve fetches the full record for an id and maps it into the canonical
// Question shape. Returns (nil, nil) when the id does not resolve.
func (p *Pool) Resolve(ctx context.Context, id string, now time.Time) (*entity.Question, error) {
	raw, err := p.kv.Get(ctx, ProblemKeyPrefix+id)
	if err != nil {
		return nil, ErrSelection.MsgErr(fmt.Sprintf("unable to read problem %s", id), err)
	}
	if raw == nil {
		return nil, nil
	}

	record := gjson.ParseBytes(raw)
	difficulty := strings.ToLower(record.Get("difficulty").String())
	q := &entity.Question{
		ID:            record.Get("id").String(),
		Type:          questionTypeFor(record.Get("metadata.category").String()),
		Difficulty:    difficulty,
		Title:         record.Get("title").String(),
		Prompt:        record.Get("description").String(),
		JudgeSlug:     record.Get("titleSlug").String(),
		Source:        record.Get("url").String(),
		Popularity:    int(record.Get("metadata.likes").Int()),
		EstimatedTime: estimatedTimeFor(difficulty),
		SelectedAt:    now,
	}
	for _, topic := range record.Get("metadata.topics").Array() {
		q.Tags = append(q.Tags, topic.String())
	}
	for _, hint := range record.Get("metadata.hints").Array() {
		q.Hints = append(q.Hints, hint.String())
	}
	return q, nil
}

func questionTypeFor(category string) entity.QuestionType {
	switch strings.ToLower(category) {
	case "system design":
		return entity.QuestionSystemDesign
	case "concurrency", "database", "shell":
		return entity.QuestionTheory
	default:
		return entity.QuestionCoding
	}
}

func estimatedTimeFor(difficulty string) time.Duration {
	switch difficulty {
	case "easy":
		return 15 * time.Minute
	case "hard":
		return 40 * time.Minute
	default:
		return 25 * time.Minute
	}
}
