package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Envelope is the uniform response body for every JSON endpoint.
// Exactly one of Data or Error is populated.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *EnvelopeError `json:"error,omitempty"`
}

// EnvelopeError carries a stable machine-readable code, a human message,
// and the time the error was produced.
type EnvelopeError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SendJsonRsp sends a success envelope with the given status code and payload.
// If location is provided and status code is http.StatusCreated (201),
// sets the Location header.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, data any, location ...string) {
	body, err := json.Marshal(Envelope{Success: true, Data: data})
	if err != nil {
		log.Ctx(ctx).Err(err).Msg("unable to marshal json response")
		ErrApplicationError().Send(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if statusCode == http.StatusCreated && len(location) > 0 {
		w.Header().Set("Location", location[0])
	}
	w.WriteHeader(statusCode)
	w.Write(body)
}
