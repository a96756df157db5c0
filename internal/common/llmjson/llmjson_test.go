package llmjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var questionSchema = MustCompileSchema("question.json", `{
	"type": "object",
	"required": ["title", "text"],
	"properties": {
		"title": {"type": "string"},
		"text": {"type": "string"}
	}
}`)

func TestObjectStrict(t *testing.T) {
	obj, ok := Object(`{"title": "Conflict", "text": "Tell me about a conflict."}`, questionSchema)
	require.True(t, ok)
	assert.Equal(t, "Conflict", obj.Get("title").String())
}

func TestObjectFenced(t *testing.T) {
	raw := "```json\n{\"title\": \"Ownership\", \"text\": \"Describe a project you owned.\"}\n```"
	obj, ok := Object(raw, questionSchema)
	require.True(t, ok)
	assert.Equal(t, "Ownership", obj.Get("title").String())
}

func TestObjectEmbeddedInProse(t *testing.T) {
	raw := `Sure! Here is the question you asked for:
{"title": "Failure", "text": "Tell me about a time you failed.", "tags": ["resilience"]}
Let me know if you need another.`
	obj, ok := Object(raw, questionSchema)
	require.True(t, ok)
	assert.Equal(t, "Failure", obj.Get("title").String())
}

func TestObjectSchemaRejection(t *testing.T) {
	// valid JSON, but missing required fields
	_, ok := Object(`{"topic": "something"}`, questionSchema)
	assert.False(t, ok)
}

func TestObjectGarbage(t *testing.T) {
	_, ok := Object("I could not produce a question, sorry.", questionSchema)
	assert.False(t, ok)
}

func TestStringListArray(t *testing.T) {
	assert.Equal(t, []string{"1", "42", "7"}, StringList(`[1, 42, 7]`))
	assert.Equal(t, []string{"two-sum", "lru-cache"}, StringList(`["two-sum", "lru-cache"]`))
}

func TestStringListEmbeddedArray(t *testing.T) {
	raw := "The best picks would be: [\"3\", \"15\"] based on the role."
	assert.Equal(t, []string{"3", "15"}, StringList(raw))
}

func TestStringListQuotedToken(t *testing.T) {
	assert.Equal(t, []string{"206"}, StringList(`"206"`))
}

func TestStringListBareToken(t *testing.T) {
	assert.Equal(t, []string{"206"}, StringList("206"))
	assert.Equal(t, []string{"reverse-linked-list"}, StringList("\nreverse-linked-list\n"))
}

func TestStringListProse(t *testing.T) {
	assert.Nil(t, StringList("I am unable to choose a question."))
}

func TestStringListFenced(t *testing.T) {
	assert.Equal(t, []string{"9", "12"}, StringList("```json\n[9, 12]\n```"))
}
