package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
)

// EventsHandler serves /api/events. Mutating methods expect the auth gate to
// have attached an identity to the request context.
type EventsHandler struct {
	Service *events.Service
}

func NewEventsHandler(service *events.Service) *EventsHandler {
	return &EventsHandler{Service: service}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		problem.Write(w, r, problem.Unauthorized(auth.ErrMissingToken))
		return
	}

	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.Service.Create(r.Context(), identity.Subject, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.EventMutations.WithLabelValues("create").Inc()
	w.Header().Set("Location", "/api/events/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		problem.Write(w, r, problem.Unauthorized(auth.ErrMissingToken))
		return
	}

	var patch events.EventPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.Service.Update(r.Context(), identity.Subject, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.EventMutations.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, updated)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		problem.Write(w, r, problem.Unauthorized(auth.ErrMissingToken))
		return
	}

	if err := h.Service.Delete(r.Context(), identity.Subject, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	metrics.EventMutations.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}
