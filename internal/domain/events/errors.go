package events

import (
	"errors"
	"sort"
	"strings"
)

// ErrForbidden is returned when an identity mutates an event it does not own.
var ErrForbidden = errors.New("event owned by another identity")

// ValidationError describes rejected input. Fields maps JSON field names to
// a short description of what is wrong with each.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}
