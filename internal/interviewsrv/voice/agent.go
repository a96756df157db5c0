package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/rs/zerolog/log"

	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
)

// Recorder receives the finished turn for the session transcript. Recording
// happens asynchronously relative to returning audio to the caller; a
// recording failure must never block turn delivery.
type Recorder interface {
	RecordInteraction(ctx context.Context, userText, aiText string)
}

// TurnContext carries the session state a turn is generated against.
type TurnContext struct {
	Persona        string
	Mode           entity.InterviewMode
	JobTitle       string
	JobDescription string
	QuestionText   string
	CurrentCode    string
}

// Agent runs the three-stage voice pipeline.
type Agent struct {
	gateway   aigateway.Gateway
	personas  *Registry
	maxTokens int64
}

// NewAgent creates a voice agent over the given gateway and persona registry.
func NewAgent(gateway aigateway.Gateway, personas *Registry, maxTokens int64) *Agent {
	if maxTokens == 0 {
		maxTokens = 256
	}
	return &Agent{gateway: gateway, personas: personas, maxTokens: maxTokens}
}

// Turn runs one full conversational turn: transcribe, generate, synthesize.
// A transcription failure aborts the turn before any downstream call; a
// generation failure substitutes the persona's trouble line; a synthesis
// failure aborts the turn. The reply audio and both text sides are returned.
func (a *Agent) Turn(ctx context.Context, audio []byte, tc TurnContext, rec Recorder) ([]byte, string, string, error) {
	contentType, err := sniffAudio(audio)
	if err != nil {
		return nil, "", "", err
	}

	userText, err := a.gateway.Transcribe(ctx, audio, contentType)
	if err != nil {
		return nil, "", "", err
	}

	replyText := a.generateReply(ctx, tc, userText)

	replyAudio, err := a.gateway.Synthesize(ctx, replyText)
	if err != nil {
		return nil, "", "", err
	}

	a.record(ctx, rec, userText, replyText)
	return replyAudio, userText, replyText, nil
}

// Greeting runs the zero-stage path: no input audio, generation and synthesis
// against a context built purely from session metadata.
func (a *Agent) Greeting(ctx context.Context, tc TurnContext, rec Recorder) ([]byte, string, error) {
	persona := a.personas.Get(tc.Persona)

	prompt := fmt.Sprintf(
		"Open the interview. Greet the candidate for the %s position, briefly explain the "+
			"%s interview format, and lead into the first question:\n%s",
		tc.JobTitle, tc.Mode, tc.QuestionText)

	greeting, err := a.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages: []aigateway.Message{
			{Role: aigateway.RoleSystem, Content: persona.SystemPrompt},
			{Role: aigateway.RoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("greeting generation failed, using trouble line")
		greeting = persona.TroubleLine
	}

	audio, err := a.gateway.Synthesize(ctx, greeting)
	if err != nil {
		return nil, "", err
	}

	a.record(ctx, rec, "", greeting)
	return audio, greeting, nil
}

// generateReply builds the per-turn prompt and calls the gateway. Failure is
// recovered with the persona's trouble line so synthesis still proceeds.
func (a *Agent) generateReply(ctx context.Context, tc TurnContext, userText string) string {
	persona := a.personas.Get(tc.Persona)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Interview mode: %s\n", tc.Mode)
	if tc.JobDescription != "" {
		fmt.Fprintf(&sb, "Role: %s\n", excerpt(tc.JobDescription, 400))
	}
	if tc.QuestionText != "" {
		fmt.Fprintf(&sb, "Current question: %s\n", tc.QuestionText)
	}
	if tc.CurrentCode != "" {
		fmt.Fprintf(&sb, "Candidate's current code:\n%s\n", excerpt(tc.CurrentCode, 1200))
	}

	reply, err := a.gateway.Generate(ctx, aigateway.GenerateRequest{
		Messages: []aigateway.Message{
			{Role: aigateway.RoleSystem, Content: persona.SystemPrompt + "\n\n" + sb.String()},
			{Role: aigateway.RoleUser, Content: userText},
		},
		Temperature: 0.7,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("turn generation failed, using trouble line")
		return persona.TroubleLine
	}
	return reply
}

// record hands the turn to the recorder in the background.
func (a *Agent) record(ctx context.Context, rec Recorder, userText, aiText string) {
	if rec == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Ctx(ctx).Error().Msgf("panic recording interaction: %v", r)
			}
		}()
		rec.RecordInteraction(context.WithoutCancel(ctx), userText, aiText)
	}()
}

// sniffAudio detects the uploaded container and rejects non-audio payloads
// before a transcription call is spent on them.
func sniffAudio(audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", aigateway.ErrTranscription.Msg("empty audio payload")
	}
	kind, _ := filetype.Match(audio)
	if kind == filetype.Unknown {
		// raw PCM or partial uploads sniff as unknown; let the gateway decide
		return "application/octet-stream", nil
	}
	if kind.MIME.Type == "audio" || kind == matchers.TypeWebm {
		return kind.MIME.Value, nil
	}
	return "", aigateway.ErrTranscription.Msg("unsupported audio format: " + kind.MIME.Value)
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
