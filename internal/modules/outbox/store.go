// README: Outbox store backed by PostgreSQL.
package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is satisfied by *pgxpool.Pool and pgx.Tx, so messages can be
// enqueued inside the caller's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Enqueue inserts m using db. Pass a pgx.Tx to commit the message together
// with the business rows it describes.
func Enqueue(ctx context.Context, db Execer, m Message) error {
	_, err := db.Exec(ctx, `
		INSERT INTO outbox_messages (topic, payload, created_at)
		VALUES ($1, $2, $3)`,
		m.Topic, m.Payload, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("outbox.Enqueue: %w", err)
	}
	return nil
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// BatchResult counts what one Process call did.
type BatchResult struct {
	Sent   int
	Failed int
}

// Process locks up to limit unsent messages (skipping rows other relays
// hold), hands each to fn and records the outcome in the same transaction.
func (s *Store) Process(ctx context.Context, limit int, fn func(context.Context, Message) error) (BatchResult, error) {
	var res BatchResult
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, topic, payload, attempts, created_at
			FROM outbox_messages
			WHERE sent_at IS NULL
			ORDER BY id
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, limit)
		if err != nil {
			return err
		}
		msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
			var m Message
			err := row.Scan(&m.ID, &m.Topic, &m.Payload, &m.Attempts, &m.CreatedAt)
			return m, err
		})
		if err != nil {
			return err
		}

		for _, m := range msgs {
			if pubErr := fn(ctx, m); pubErr != nil {
				res.Failed++
				if _, err := tx.Exec(ctx, `
					UPDATE outbox_messages
					SET attempts = attempts + 1, last_error = $2
					WHERE id = $1`, m.ID, pubErr.Error()); err != nil {
					return err
				}
				continue
			}
			res.Sent++
			if _, err := tx.Exec(ctx, `
				UPDATE outbox_messages
				SET attempts = attempts + 1, sent_at = now(), last_error = NULL
				WHERE id = $1`, m.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("outbox.Store.Process: %w", err)
	}
	return res, nil
}
