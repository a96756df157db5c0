package aigateway

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// OpenAIConfig selects the models used for each capability.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string // optional override for compatible providers
	ChatModel          string
	TranscriptionModel string
	SpeechModel        string
	Voice              string
	RetryAttempts      uint
	RetryDelay         time.Duration
}

// openAIGateway implements Gateway on the OpenAI API: chat completions for
// generation, Whisper for transcription, and the speech endpoint for
// synthesis.
type openAIGateway struct {
	client openai.Client
	cfg    OpenAIConfig
}

// NewOpenAI creates a Gateway backed by the OpenAI API.
func NewOpenAI(cfg OpenAIConfig) Gateway {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.ChatModelGPT4o
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.AudioModelWhisper1
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = string(openai.SpeechModelTTS1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 2
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &openAIGateway{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

func (g *openAIGateway) retryOpts(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(g.cfg.RetryAttempts),
		retry.Delay(g.cfg.RetryDelay),
		retry.LastErrorOnly(true),
	}
}

// Generate produces a chat completion for the given messages.
func (g *openAIGateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.cfg.ChatModel,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	var content string
	err := retry.Do(func() error {
		completion, err := g.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return err
		}
		if len(completion.Choices) == 0 {
			return ErrGeneration.Msg("empty completion")
		}
		content = completion.Choices[0].Message.Content
		return nil
	}, g.retryOpts(ctx)...)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("chat completion failed")
		return "", ErrGeneration.MsgErr("chat completion failed", err)
	}
	return content, nil
}

// Transcribe converts audio bytes to text via the transcription endpoint.
func (g *openAIGateway) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	var text string
	err := retry.Do(func() error {
		transcription, err := g.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
			Model: g.cfg.TranscriptionModel,
			File:  openai.File(bytes.NewReader(audio), "audio", contentType),
		})
		if err != nil {
			return err
		}
		text = transcription.Text
		return nil
	}, g.retryOpts(ctx)...)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("transcription failed")
		return "", ErrTranscription.MsgErr("transcription failed", err)
	}
	return text, nil
}

// Synthesize converts text to MP3 audio via the speech endpoint.
func (g *openAIGateway) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var audio []byte
	err := retry.Do(func() error {
		rsp, err := g.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
			Model:          g.cfg.SpeechModel,
			Voice:          openai.AudioSpeechNewParamsVoice(g.cfg.Voice),
			Input:          text,
			ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		})
		if err != nil {
			return err
		}
		defer rsp.Body.Close()
		audio, err = io.ReadAll(rsp.Body)
		return err
	}, g.retryOpts(ctx)...)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("speech synthesis failed")
		return nil, ErrSynthesis.MsgErr("speech synthesis failed", err)
	}
	return audio, nil
}
