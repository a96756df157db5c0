package aigateway

import (
	"context"
	"sync"
)

// FakeGateway is a scriptable Gateway for tests. Each capability returns the
// queued replies in order, repeating the last one, or the configured error.
// Calls are counted so tests can assert that no downstream call was wasted.
type FakeGateway struct {
	mu sync.Mutex

	GenerateReplies []string
	GenerateErr     error
	TranscribeText  string
	TranscribeErr   error
	SynthesizeAudio []byte
	SynthesizeErr   error

	GenerateCalls   int
	TranscribeCalls int
	SynthesizeCalls int

	// LastGenerate records the most recent generation request for prompt
	// assertions.
	LastGenerate GenerateRequest
}

var _ Gateway = (*FakeGateway)(nil)

func (f *FakeGateway) Generate(_ context.Context, req GenerateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GenerateCalls++
	f.LastGenerate = req
	if f.GenerateErr != nil {
		return "", f.GenerateErr
	}
	if len(f.GenerateReplies) == 0 {
		return "", ErrGeneration.Msg("no scripted reply")
	}
	reply := f.GenerateReplies[0]
	if len(f.GenerateReplies) > 1 {
		f.GenerateReplies = f.GenerateReplies[1:]
	}
	return reply, nil
}

func (f *FakeGateway) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TranscribeCalls++
	if f.TranscribeErr != nil {
		return "", f.TranscribeErr
	}
	return f.TranscribeText, nil
}

func (f *FakeGateway) Synthesize(_ context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SynthesizeCalls++
	if f.SynthesizeErr != nil {
		return nil, f.SynthesizeErr
	}
	return f.SynthesizeAudio, nil
}
