// Package seed bulk-loads a question pool from a problems JSON file: one full
// record per problem id plus the compact essentials index the selector
// filters on.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/prepstage/prepstage/internal/interviewsrv/kvstore"
	"github.com/prepstage/prepstage/internal/interviewsrv/question"
)

// Result summarizes one load run.
type Result struct {
	Loaded  int
	Skipped int
}

// LoadFile reads a JSON array of problem records from path and loads it into
// the pool store.
func LoadFile(ctx context.Context, kv kvstore.KV, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("unable to read problems file: %w", err)
	}
	return Load(ctx, kv, data)
}

// Load writes every record under problem:<id> and rebuilds the essentials
// index. Records without an id are skipped, not fatal; a store write failure
// aborts the load.
func Load(ctx context.Context, kv kvstore.KV, data []byte) (Result, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return Result{}, fmt.Errorf("problems file must be a JSON array")
	}

	var res Result
	index := `{"problems":[]}`
	for _, record := range parsed.Array() {
		id := record.Get("id").String()
		if id == "" {
			log.Ctx(ctx).Warn().Str("title", record.Get("title").String()).Msg("skipping record without id")
			res.Skipped++
			continue
		}

		if err := kv.Put(ctx, question.ProblemKeyPrefix+id, []byte(record.Raw)); err != nil {
			return res, fmt.Errorf("unable to store problem %s: %w", id, err)
		}

		entry, err := indexEntry(record)
		if err != nil {
			return res, err
		}
		index, err = sjson.SetRaw(index, "problems.-1", entry)
		if err != nil {
			return res, fmt.Errorf("unable to build essentials index: %w", err)
		}
		res.Loaded++
	}

	if res.Loaded == 0 {
		return res, fmt.Errorf("no usable problem records in input")
	}
	if err := kv.Put(ctx, question.EssentialsKey, []byte(index)); err != nil {
		return res, fmt.Errorf("unable to store essentials index: %w", err)
	}
	return res, nil
}

// indexEntry projects a full record onto the compact index row the selector
// reads.
func indexEntry(record gjson.Result) (string, error) {
	entry := `{}`
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		entry, err = sjson.Set(entry, path, value)
	}

	set("id", record.Get("id").Value())
	set("title", record.Get("title").String())
	set("difficulty", record.Get("difficulty").String())
	topics := []string{}
	for _, topic := range record.Get("metadata.topics").Array() {
		topics = append(topics, topic.String())
	}
	set("topics", topics)
	if err != nil {
		return "", fmt.Errorf("unable to project index entry: %w", err)
	}
	return entry, nil
}
