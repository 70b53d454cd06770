package postgres

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventRepository stores events in the events table. A repository created
// by WithTx runs every statement inside that transaction.
type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ events.TxRepository = (*EventRepository)(nil)

func NewEventRepository(pool *pgxpool.Pool) (*EventRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &EventRepository{pool: pool}, nil
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

// WithTx runs fn against a repository bound to a single transaction,
// committing when fn returns nil. Reads through the bound repository lock
// the rows they return until the transaction ends.
func (r *EventRepository) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &EventRepository{pool: r.pool, tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *EventRepository) Ping(ctx context.Context) error {
	if r.tx != nil {
		return nil
	}
	return r.pool.Ping(ctx)
}
