package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Tasklane/internal/domain"
)

const schemaTaskEvents = `
	CREATE TABLE IF NOT EXISTS task_events (
		id         UUID PRIMARY KEY,
		type       TEXT NOT NULL,
		task_id    TEXT NOT NULL,
		worker_id  INTEGER NOT NULL,
		status     TEXT NOT NULL,
		operation  TEXT NOT NULL,
		input      BIGINT NOT NULL,
		result     TEXT,
		error      TEXT,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS task_events_task_id_idx ON task_events (task_id);
`

const insertTaskEvent = `
	INSERT INTO task_events (id, type, task_id, worker_id, status, operation, input, result, error, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING
`

// EventRepo — журнал событий task'ов в Postgres.
//
// Журнал только пополняется: состояние task'ов из него не восстанавливается.
// Реализует worker.Notifier.
type EventRepo struct {
	pool *pgxpool.Pool
}

// NewEventRepo создаёт новый EventRepo.
func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// EnsureSchema создаёт таблицу task_events, если её нет.
func (r *EventRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaTaskEvents); err != nil {
		return fmt.Errorf("create task_events: %w", err)
	}
	return nil
}

// Append записывает событие. Повторная запись того же события игнорируется.
func (r *EventRepo) Append(ctx context.Context, event domain.TaskEvent) error {
	args, err := eventArgs(event)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, insertTaskEvent, args...); err != nil {
		return fmt.Errorf("insert task event: %w", err)
	}
	return nil
}

// Notify реализует worker.Notifier.
func (r *EventRepo) Notify(ctx context.Context, event domain.TaskEvent) error {
	return r.Append(ctx, event)
}

// eventArgs готовит аргументы INSERT в порядке колонок.
func eventArgs(e domain.TaskEvent) ([]any, error) {
	if e.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidEvent)
	}
	if e.TaskID == "" {
		return nil, fmt.Errorf("%w: empty task_id", ErrInvalidEvent)
	}
	if e.Timestamp.IsZero() {
		return nil, fmt.Errorf("%w: empty timestamp", ErrInvalidEvent)
	}

	return []any{
		e.ID,
		string(e.Type),
		e.TaskID,
		e.WorkerID,
		string(e.Status),
		e.Operation,
		e.Input,
		nullString(e.Result),
		nullString(e.Error),
		e.Timestamp,
	}, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
