package session

import (
	"net/http"

	"github.com/prepstage/prepstage/internal/common/apperrors"
)

// Error taxonomy for session operations. State-machine violations and unknown
// ids propagate to the caller with a stable code; AI-dependent enrichment
// degrades to defaults instead of surfacing here.
var (
	ErrSession apperrors.Error = apperrors.New("session error").
			SetStatusCode(http.StatusInternalServerError)

	ErrSessionNotFound apperrors.Error = apperrors.New("session not found").
				SetStatusCode(http.StatusNotFound).
				SetCode("SESSION_NOT_FOUND")

	ErrInvalidStateTransition apperrors.Error = apperrors.New("invalid state transition").
					SetStatusCode(http.StatusConflict).
					SetCode("INVALID_STATE_TRANSITION")

	ErrInvalidRequest apperrors.Error = apperrors.New("invalid session request").
				SetStatusCode(http.StatusBadRequest).
				SetCode("INVALID_REQUEST")
)
