package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const (
	contentType = "application/json"

	// InternalMessage is the only message ever returned for unexpected failures.
	InternalMessage = "Internal Server Error"
)

// Envelope is the JSON body written for every error response.
type Envelope struct {
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Error is an intentional HTTP error. Its message is safe to show to clients.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Unauthorized(err error) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: "Unauthorized", Err: err}
}

func Forbidden(err error) *Error {
	return &Error{Status: http.StatusForbidden, Message: "Forbidden", Err: err}
}

func NotFound(message string) *Error {
	if message == "" {
		message = "Not Found"
	}
	return &Error{Status: http.StatusNotFound, Message: message}
}

func BadRequest(message string, fields map[string]string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Fields: fields, Err: err}
}

func TooLarge(err error) *Error {
	return &Error{Status: http.StatusRequestEntityTooLarge, Message: "Request body too large", Err: err}
}

func Conflict(message string, err error) *Error {
	return &Error{Status: http.StatusConflict, Message: message, Err: err}
}

// Write translates err into the error envelope. An *Error anywhere in the
// chain is written as-is; anything else is logged and reported as a generic 500.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	var httpErr *Error
	if !errors.As(err, &httpErr) || httpErr.Status < 400 {
		logger.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg("unhandled error")
		WriteEnvelope(w, Envelope{Message: InternalMessage, Status: http.StatusInternalServerError})
		return
	}

	event := logger.Warn()
	if httpErr.Status >= 500 {
		event = logger.Error()
	}
	event.
		Err(httpErr.Err).
		Int("status", httpErr.Status).
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Msg(httpErr.Message)

	WriteEnvelope(w, Envelope{Message: httpErr.Message, Status: httpErr.Status, Errors: httpErr.Fields})
}

func WriteEnvelope(w http.ResponseWriter, envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		fallback := fmt.Sprintf("{\"message\":%q,\"status\":500}", InternalMessage)
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(envelope.Status)
	_, _ = w.Write(payload)
}
