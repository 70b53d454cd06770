package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Togather-Foundation/eventboard/internal/api/problem"
)

// Recover turns a handler panic into the generic 500 envelope.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			if sw.wroteHeader() {
				// Headers are already on the wire; abort the connection instead.
				panic(http.ErrAbortHandler)
			}
			problem.Write(sw, r, fmt.Errorf("panic: %v", rec))
		}()

		next.ServeHTTP(sw, r)
	})
}
