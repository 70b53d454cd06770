package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// ErrConflict is returned when an event ID is already taken.
var ErrConflict = errors.New("event conflict")

// Event is the stored representation of an event. Date is a calendar date
// in YYYY-MM-DD form.
type Event struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type EventCreateParams struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Location    string
	Date        string
}

// EventUpdateParams carries a partial update; nil fields are left unchanged.
type EventUpdateParams struct {
	Title       *string
	Description *string
	Location    *string
	Date        *string
}

func (p EventUpdateParams) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil && p.Date == nil
}

// Repository persists events. Get, Update and Delete return ErrNotFound
// when no event has the given ID. List returns events ordered by ID.
type Repository interface {
	List(ctx context.Context) ([]Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, params EventCreateParams) (*Event, error)
	Update(ctx context.Context, id string, params EventUpdateParams) (*Event, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// TxRepository is implemented by repositories that can run a unit of work in
// a single transaction. fn receives a Repository bound to that transaction;
// returning an error rolls it back.
type TxRepository interface {
	Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
