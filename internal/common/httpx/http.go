// Package httpx provides HTTP request/response handling utilities built around a
// uniform response envelope. Every JSON response carries either a data payload or
// a structured error with a stable code and timestamp. Non-JSON content types
// (audio streams from the voice pipeline) bypass the envelope.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prepstage/prepstage/internal/common/apperrors"
)

// GetRequestData parses JSON request body into the provided data structure.
// Only supports POST, PUT, and PATCH methods. Returns an error if the request
// body is empty or cannot be parsed.
func GetRequestData(r *http.Request, data any) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil {
		log.Ctx(r.Context()).Error().Msg("empty request body")
		return ErrUnableToParseReqData()
	}
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return ErrUnableToParseReqData()
	}
	return nil
}

// Response represents an HTTP response with configurable status code and
// content type. JSON responses are wrapped in the success envelope; other
// content types are written verbatim.
type Response struct {
	StatusCode  int
	Location    string
	Response    any
	ContentType string
	Raw         []byte // body for non-JSON content types
}

// RequestHandler defines a function type for handling HTTP requests.
type RequestHandler func(r *http.Request) (*Response, error)

// WrapHandler wraps a RequestHandler to provide standardized response handling:
// application errors are mapped to the error envelope, successful JSON payloads
// to the success envelope, and raw content types are passed through.
func WrapHandler(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			if httperror, ok := err.(*Error); ok {
				httperror.Send(w)
			} else if appErr, ok := err.(apperrors.Error); ok {
				statusCode := appErr.StatusCode()
				if statusCode == 0 {
					statusCode = http.StatusInternalServerError
				}
				httperror := &Error{
					StatusCode:  statusCode,
					Code:        appErr.Code(),
					Description: appErr.ErrorAll(),
				}
				httperror.Send(w)
			} else {
				ErrApplicationError(err.Error()).Send(w)
			}
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}

		if rsp.ContentType != "" && rsp.ContentType != "application/json" {
			w.Header().Set("Content-Type", rsp.ContentType)
			w.WriteHeader(rsp.StatusCode)
			w.Write(rsp.Raw)
			return
		}

		var location []string
		if rsp.Location != "" {
			location = append(location, rsp.Location)
		}
		SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response, location...)
	})
}
