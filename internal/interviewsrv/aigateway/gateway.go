// Package aigateway defines the contract for the opaque AI services the engine
// consumes: text generation, speech-to-text, and text-to-speech. Callers treat
// all three as fallible and implement their own fallback behavior; the gateway
// itself only retries transient transport failures.
package aigateway

import (
	"context"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a generation prompt.
type Message struct {
	Role    Role
	Content string
}

// GenerateRequest carries a prompt and output bounds for text generation.
type GenerateRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int64
}

// Gateway is the AI service contract. All three capabilities may fail; the
// per-component fallback behavior is specified by the caller, not here.
type Gateway interface {
	// Generate produces a text completion for the given messages.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Transcribe converts audio bytes to text. contentType is the sniffed
	// MIME type of the audio container.
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)

	// Synthesize converts text to audio bytes.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
