// README: Notification store backed by PostgreSQL.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"charter/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// UpsertToken keeps one device token per user; the latest registration wins.
func (s *Store) UpsertToken(ctx context.Context, userID types.ID, token string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO fcm_tokens (user_id, token, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, updated_at = now()`,
		string(userID), token,
	)
	if err != nil {
		return fmt.Errorf("notification.Store.UpsertToken: %w", err)
	}
	return nil
}

func (s *Store) TokenFor(ctx context.Context, userID types.ID) (string, error) {
	var token string
	err := s.db.QueryRow(ctx, `SELECT token FROM fcm_tokens WHERE user_id = $1`, string(userID)).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("notification.Store.TokenFor: %w", err)
	}
	return token, nil
}

func (s *Store) Insert(ctx context.Context, r *Record) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, body, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		string(r.UserID), r.Title, r.Body, r.Kind,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification.Store.Insert: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID types.ID, page types.Page) ([]Record, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, string(userID)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("notification.Store.List count: %w", err)
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, title, body, kind, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		string(userID), page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("notification.Store.List: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Body, &r.Kind, &r.IsRead, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("notification.Store.List scan: %w", err)
	}
	return items, total, nil
}

// MarkRead only touches the caller's own records.
func (s *Store) MarkRead(ctx context.Context, userID types.ID, id int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND user_id = $2`, id, string(userID))
	if err != nil {
		return fmt.Errorf("notification.Store.MarkRead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
