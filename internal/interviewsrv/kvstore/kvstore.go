// Package kvstore provides the key-value contract backing the question pool
// and the KV flavor of the session store. The pool is read-mostly and
// externally owned; the engine never deletes keys.
package kvstore

import (
	"context"
	"net/http"

	"github.com/prepstage/prepstage/internal/common/apperrors"
)

// ErrStore is the base error for key-value store failures.
var ErrStore apperrors.Error = apperrors.New("key-value store error").
	SetStatusCode(http.StatusInternalServerError).
	SetCode("PERSISTENCE_FAILURE")

// KV is a minimal key-value store. Get returns (nil, nil) on a missing key;
// store unavailability is an error, never silently swallowed.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
