package aigateway

import (
	"net/http"

	"github.com/prepstage/prepstage/internal/common/apperrors"
)

var (
	// ErrGateway is the base error for all AI gateway failures.
	ErrGateway apperrors.Error = apperrors.New("ai gateway error").
			SetStatusCode(http.StatusBadGateway)

	// ErrGeneration is returned when text generation fails. Callers recover
	// locally with a documented fallback; this error is never surfaced to the
	// end user.
	ErrGeneration apperrors.Error = ErrGateway.New("text generation failed").
			SetCode("GENERATION_FAILURE")

	// ErrTranscription is returned when speech-to-text fails. Fatal to the
	// current voice turn; there is no fallback transcript.
	ErrTranscription apperrors.Error = ErrGateway.New("audio transcription failed").
				SetCode("TRANSCRIPTION_FAILURE")

	// ErrSynthesis is returned when text-to-speech fails. Fatal to the current
	// voice turn; there is no silent fallback for audio output.
	ErrSynthesis apperrors.Error = ErrGateway.New("speech synthesis failed").
			SetCode("SYNTHESIS_FAILURE")
)
