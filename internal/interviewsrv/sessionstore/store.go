// Package sessionstore persists session records. Each session is exclusively
// owned and written by its one session actor; the store never merges
// concurrent writes for the same id.
package sessionstore

import (
	"context"
	"net/http"

	"github.com/prepstage/prepstage/internal/common/apperrors"
	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
)

// ErrStore is the base error for session persistence failures. A failed Save
// is fatal to the mutating operation; a mutation is never silently lost.
var ErrStore apperrors.Error = apperrors.New("session store error").
	SetStatusCode(http.StatusInternalServerError).
	SetCode("PERSISTENCE_FAILURE")

// Store loads and saves session records. Load returns (nil, nil) when no
// record exists for the id.
type Store interface {
	Load(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	Save(ctx context.Context, s *entity.Session) error
}
