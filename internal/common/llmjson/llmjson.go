// Package llmjson extracts structured data from free-form LLM output. Model
// replies embed JSON in prose, wrap it in markdown fences, or degrade to bare
// tokens; callers need a uniform answer. Extraction attempts strict schema
// validation first and falls back through an ordered list of looser
// extractors. Parsing failure is reported as a boolean, never an exception
// path, so callers always reach their documented fallback.
package llmjson

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// MustCompileSchema compiles a JSON schema literal under the given name.
// Panics on a malformed schema; intended for package-level schema constants.
func MustCompileSchema(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// Clean strips markdown code fences and surrounding whitespace from raw
// model output.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// firstBlock returns the first balanced JSON object or array embedded in s.
func firstBlock(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// Object extracts a JSON object from raw model output. When schema is non-nil
// the object must validate against it. The strict pass requires the cleaned
// output to be the object itself; the loose pass accepts the first balanced
// object embedded in prose. Returns ok=false when nothing usable is found.
func Object(raw string, schema *jsonschema.Schema) (gjson.Result, bool) {
	cleaned := Clean(raw)
	for _, candidate := range objectCandidates(cleaned) {
		if !gjson.Valid(candidate) {
			continue
		}
		parsed := gjson.Parse(candidate)
		if !parsed.IsObject() {
			continue
		}
		if schema != nil {
			var v any
			if err := json.Unmarshal([]byte(candidate), &v); err != nil {
				continue
			}
			if err := schema.Validate(v); err != nil {
				continue
			}
		}
		return parsed, true
	}
	return gjson.Result{}, false
}

func objectCandidates(cleaned string) []string {
	candidates := []string{cleaned}
	if block, ok := firstBlock(cleaned, '{', '}'); ok && block != cleaned {
		candidates = append(candidates, block)
	}
	return candidates
}

// StringList extracts a list of string tokens from raw model output. The
// extractor ladder: a JSON array (string or numeric elements), a single
// quoted token, then a bare token on the first non-empty line. Empty entries
// are dropped. Returns nil when nothing usable is found.
func StringList(raw string) []string {
	cleaned := Clean(raw)

	arr := cleaned
	if !gjson.Valid(arr) || !gjson.Parse(arr).IsArray() {
		if block, ok := firstBlock(cleaned, '[', ']'); ok {
			arr = block
		}
	}
	if gjson.Valid(arr) {
		if parsed := gjson.Parse(arr); parsed.IsArray() {
			var out []string
			for _, item := range parsed.Array() {
				if s := strings.TrimSpace(item.String()); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	// single quoted token
	if strings.HasPrefix(cleaned, `"`) {
		if unquoted := gjson.Parse(cleaned).String(); unquoted != "" {
			return []string{unquoted}
		}
	}

	// bare token on the first non-empty line
	for _, line := range strings.Split(cleaned, "\n") {
		token := strings.TrimSpace(line)
		if token == "" {
			continue
		}
		if strings.ContainsAny(token, " \t") {
			return nil
		}
		return []string{token}
	}
	return nil
}
