package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return problem.BadRequest("request body is required", nil, nil)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var (
			maxErr  *http.MaxBytesError
			typeErr *json.UnmarshalTypeError
		)
		switch {
		case errors.As(err, &maxErr):
			return problem.TooLarge(err)
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return problem.BadRequest("invalid event", map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()}, err)
		case errors.Is(err, io.EOF):
			return problem.BadRequest("request body is required", nil, err)
		default:
			return problem.BadRequest("request body must be a JSON object", nil, err)
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return problem.TooLarge(err)
		}
		return problem.BadRequest("request body must contain a single JSON object", nil, err)
	}
	return nil
}

// translateError maps domain errors onto intentional HTTP errors. Anything it
// does not recognise is passed through and becomes a generic 500.
func translateError(err error) error {
	var verr events.ValidationError
	switch {
	case errors.Is(err, events.ErrNotFound):
		return problem.NotFound("Event not found")
	case errors.Is(err, events.ErrForbidden):
		return problem.Forbidden(err)
	case errors.Is(err, events.ErrConflict):
		return problem.Conflict("Event already exists", err)
	case errors.As(err, &verr):
		return problem.BadRequest(verr.Message, verr.Fields, err)
	default:
		return err
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	problem.Write(w, r, translateError(err))
}
