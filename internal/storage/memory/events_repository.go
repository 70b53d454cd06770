// Package memory provides an in-process event store used for local
// development (DATABASE_URL=memory://) and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	mu     sync.RWMutex
	events map[string]events.Event
	now    func() time.Time
}

func NewEventRepository() *EventRepository {
	return &EventRepository{
		events: make(map[string]events.Event),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]events.Event, 0, len(r.events))
	for _, event := range r.events {
		items = append(items, event)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return &event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.EventCreateParams) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[params.ID]; exists {
		return nil, events.ErrConflict
	}
	now := r.now()
	event := events.Event{
		ID:          params.ID,
		OwnerID:     params.OwnerID,
		Title:       params.Title,
		Description: params.Description,
		Location:    params.Location,
		Date:        params.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.events[event.ID] = event
	return &event, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, params events.EventUpdateParams) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	if params.Title != nil {
		event.Title = *params.Title
	}
	if params.Description != nil {
		event.Description = *params.Description
	}
	if params.Location != nil {
		event.Location = *params.Location
	}
	if params.Date != nil {
		event.Date = *params.Date
	}
	event.UpdatedAt = r.now()
	r.events[id] = event
	return &event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *EventRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len reports how many events are stored.
func (r *EventRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}
