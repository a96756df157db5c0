package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
)

// wavHeader is a minimal RIFF/WAVE prefix that sniffs as audio/x-wav.
var wavHeader = []byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'W', 'A', 'V', 'E', 'f', 'm', 't', ' '}

type captureRecorder struct {
	mu       sync.Mutex
	done     chan struct{}
	userText string
	aiText   string
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{done: make(chan struct{})}
}

func (c *captureRecorder) RecordInteraction(_ context.Context, userText, aiText string) {
	c.mu.Lock()
	c.userText = userText
	c.aiText = aiText
	c.mu.Unlock()
	close(c.done)
}

func (c *captureRecorder) wait(t *testing.T) (string, string) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("interaction was never recorded")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userText, c.aiText
}

func newTestAgent(gw aigateway.Gateway) *Agent {
	registry, _ := LoadRegistry("", "")
	return NewAgent(gw, registry, 128)
}

func TestTurnHappyPath(t *testing.T) {
	gw := &aigateway.FakeGateway{
		TranscribeText:  "I would use a hash map here.",
		GenerateReplies: []string{"Good. What is the lookup complexity?"},
		SynthesizeAudio: []byte{0xff, 0xf3},
	}
	agent := newTestAgent(gw)
	rec := newCaptureRecorder()

	audio, userText, replyText, err := agent.Turn(context.Background(), wavHeader, TurnContext{Mode: "technical"}, rec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xf3}, audio)
	assert.Equal(t, "I would use a hash map here.", userText)
	assert.Equal(t, "Good. What is the lookup complexity?", replyText)

	recordedUser, recordedAI := rec.wait(t)
	assert.Equal(t, userText, recordedUser)
	assert.Equal(t, replyText, recordedAI)
}

func TestTurnTranscriptionFailureAbortsEarly(t *testing.T) {
	gw := &aigateway.FakeGateway{
		TranscribeErr:   aigateway.ErrTranscription,
		GenerateReplies: []string{"never used"},
		SynthesizeAudio: []byte{1},
	}
	agent := newTestAgent(gw)

	_, _, _, err := agent.Turn(context.Background(), wavHeader, TurnContext{}, nil)
	require.Error(t, err)

	// no downstream call may be wasted
	assert.Equal(t, 1, gw.TranscribeCalls)
	assert.Equal(t, 0, gw.GenerateCalls)
	assert.Equal(t, 0, gw.SynthesizeCalls)
}

func TestTurnGenerationFailureStillSynthesizes(t *testing.T) {
	gw := &aigateway.FakeGateway{
		TranscribeText:  "hello?",
		GenerateErr:     aigateway.ErrGeneration,
		SynthesizeAudio: []byte{7, 7},
	}
	agent := newTestAgent(gw)

	audio, _, replyText, err := agent.Turn(context.Background(), wavHeader, TurnContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7}, audio)
	assert.Contains(t, replyText, "trouble")
	assert.Equal(t, 1, gw.SynthesizeCalls)
}

func TestTurnSynthesisFailureIsFatal(t *testing.T) {
	gw := &aigateway.FakeGateway{
		TranscribeText:  "hi",
		GenerateReplies: []string{"hello"},
		SynthesizeErr:   aigateway.ErrSynthesis,
	}
	agent := newTestAgent(gw)

	_, _, _, err := agent.Turn(context.Background(), wavHeader, TurnContext{}, nil)
	assert.Error(t, err)
}

func TestTurnRejectsNonAudioUpload(t *testing.T) {
	gw := &aigateway.FakeGateway{}
	agent := newTestAgent(gw)

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	_, _, _, err := agent.Turn(context.Background(), png, TurnContext{}, nil)
	require.Error(t, err)
	assert.Equal(t, 0, gw.TranscribeCalls)
}

func TestGreetingSkipsTranscription(t *testing.T) {
	gw := &aigateway.FakeGateway{
		GenerateReplies: []string{"Welcome! Let's begin with the first question."},
		SynthesizeAudio: []byte{9},
	}
	agent := newTestAgent(gw)
	rec := newCaptureRecorder()

	audio, greeting, err := agent.Greeting(context.Background(), TurnContext{
		Mode:         "technical",
		JobTitle:     "Backend Engineer",
		QuestionText: "Two Sum",
	}, rec)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, audio)
	assert.Contains(t, greeting, "Welcome")
	assert.Equal(t, 0, gw.TranscribeCalls)

	user, ai := rec.wait(t)
	assert.Empty(t, user)
	assert.Equal(t, greeting, ai)
}

func TestPersonaRegistryFallback(t *testing.T) {
	registry, err := LoadRegistry("", "")
	require.NoError(t, err)
	p := registry.Get("does-not-exist")
	assert.Equal(t, "standard", p.Name)
	assert.NotEmpty(t, p.SystemPrompt)
	assert.NotEmpty(t, p.TroubleLine)
}
