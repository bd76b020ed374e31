package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// OutboxRepo is a SQLite-backed transactional outbox. Sequence ids are
// assigned inside the insert transaction, so each aggregate's sequence
// is gapless even under concurrent saves.
type OutboxRepo struct {
	store *Store
}

// NewOutboxRepo returns a repository over an open store.
func NewOutboxRepo(store *Store) *OutboxRepo {
	return &OutboxRepo{store: store}
}

func (r *OutboxRepo) SaveEvent(ctx context.Context, event model.OutboxEvent) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if event.AggregateKey != "" {
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sequence_id), 0) + 1 FROM outbox_events WHERE aggregate_key = ?`,
			event.AggregateKey).Scan(&seq)
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, aggregate_key, sequence_id, topic, message_key, payload, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), event.AggregateKey, seq, event.DestinationTopic,
		event.MessageKey, event.Payload, string(model.OutboxPending))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return tx.Commit()
}

func (r *OutboxRepo) PendingUnordered(ctx context.Context, limit int) ([]model.StoredOutboxEvent, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT id, aggregate_key, sequence_id, topic, message_key, payload, status
		 FROM outbox_events WHERE status = ? LIMIT ?`,
		string(model.OutboxPending), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *OutboxRepo) PendingForAggregate(ctx context.Context, aggregateKey string) ([]model.StoredOutboxEvent, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT id, aggregate_key, sequence_id, topic, message_key, payload, status
		 FROM outbox_events WHERE status = ? AND aggregate_key = ?
		 ORDER BY sequence_id ASC`,
		string(model.OutboxPending), aggregateKey)
	if err != nil {
		return nil, fmt.Errorf("query aggregate pending: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *OutboxRepo) PendingAggregateKeys(ctx context.Context) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT DISTINCT aggregate_key FROM outbox_events
		 WHERE status = ? AND aggregate_key != ''
		 ORDER BY aggregate_key ASC`,
		string(model.OutboxPending))
	if err != nil {
		return nil, fmt.Errorf("query aggregate keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, event model.StoredOutboxEvent) error {
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE outbox_events SET status = ? WHERE id = ?`,
		string(model.OutboxProcessed), event.ID)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("outbox event %q not found", event.ID)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]model.StoredOutboxEvent, error) {
	var out []model.StoredOutboxEvent
	for rows.Next() {
		var e model.StoredOutboxEvent
		var status string
		if err := rows.Scan(&e.ID, &e.AggregateKey, &e.SequenceID, &e.DestinationTopic,
			&e.MessageKey, &e.Payload, &status); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Status = model.OutboxStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// OutboxFixture builds a fixture backed by an ephemeral database, one
// per clause. Cleanup closes it.
func OutboxFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*OutboxRepo)(nil)),
		},
		New: func(context.Context) (tck.Factory, error) {
			store, err := Open(":memory:")
			if err != nil {
				return nil, err
			}
			var envs int
			return func(context.Context, tck.Params) (*tck.Env, error) {
				envs++
				cleanup := func(context.Context) error { return nil }
				if envs == 1 {
					// The store outlives every env of the clause; the
					// first env owns closing it.
					cleanup = func(context.Context) error { return store.Close() }
				}
				return &tck.Env{Provider: NewOutboxRepo(store), Cleanup: cleanup}, nil
			}, nil
		},
	}
}
