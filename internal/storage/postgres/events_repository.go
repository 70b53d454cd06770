package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/Togather-Foundation/eventboard/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ events.Repository = (*EventRepository)(nil)

const tracerName = "github.com/Togather-Foundation/eventboard/internal/storage/postgres"

const uniqueViolation = "23505"

const eventColumns = `id, owner_id, title, description, location, to_char(date, 'YYYY-MM-DD'), created_at, updated_at`

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	if err := row.Scan(
		&event.ID,
		&event.OwnerID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.Date,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	event.CreatedAt = event.CreatedAt.UTC()
	event.UpdatedAt = event.UpdatedAt.UTC()
	return &event, nil
}

// observe wraps a repository call in a span and records its query metrics.
func observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "events."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil && !errors.Is(err, events.ErrNotFound) {
		metrics.RecordQuery(operation, start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	metrics.RecordQuery(operation, start, nil)
	return err
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	items := []events.Event{}
	err := observe(ctx, "list_events", func(ctx context.Context) error {
		rows, err := r.queryer().Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			event, err := scanEvent(rows)
			if err != nil {
				return fmt.Errorf("scan event: %w", err)
			}
			items = append(items, *event)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate events: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (*events.Event, error) {
	var event *events.Event
	err := observe(ctx, "get_event", func(ctx context.Context) error {
		query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
		if r.tx != nil {
			query += ` FOR UPDATE`
		}
		var err error
		event, err = scanEvent(r.queryer().QueryRow(ctx, query, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return events.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.EventCreateParams) (*events.Event, error) {
	var event *events.Event
	err := observe(ctx, "create_event", func(ctx context.Context) error {
		var err error
		event, err = scanEvent(r.queryer().QueryRow(ctx, `
INSERT INTO events (id, owner_id, title, description, location, date)
VALUES ($1, $2, $3, $4, $5, $6::date)
RETURNING `+eventColumns,
			params.ID, params.OwnerID, params.Title, params.Description, params.Location, params.Date,
		))
		if isUniqueViolation(err) {
			return events.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, params events.EventUpdateParams) (*events.Event, error) {
	var event *events.Event
	err := observe(ctx, "update_event", func(ctx context.Context) error {
		var err error
		event, err = scanEvent(r.queryer().QueryRow(ctx, `
UPDATE events
   SET title = COALESCE($2::text, title),
       description = COALESCE($3::text, description),
       location = COALESCE($4::text, location),
       date = COALESCE($5::date, date),
       updated_at = now()
 WHERE id = $1
RETURNING `+eventColumns,
			id, params.Title, params.Description, params.Location, params.Date,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return events.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return observe(ctx, "delete_event", func(ctx context.Context) error {
		tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return events.ErrNotFound
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
