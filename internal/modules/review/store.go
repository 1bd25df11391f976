// README: Review store backed by PostgreSQL.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"charter/internal/types"
)

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Exists(ctx context.Context, userID, estimateID types.ID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND estimate_id = $2)`,
		string(userID), string(estimateID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("review.Store.Exists: %w", err)
	}
	return exists, nil
}

// Create inserts the review and its image URLs. A second review for the same
// (user, estimate) pair returns types.ErrConflict.
func (s *Store) Create(ctx context.Context, r *Review) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO reviews (id, estimate_id, user_id, stars, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			string(r.ID), string(r.EstimateID), string(r.UserID), r.Stars, r.Content, r.CreatedAt,
		); err != nil {
			return err
		}
		for i, url := range r.Images {
			if _, err := tx.Exec(ctx, `
				INSERT INTO review_images (review_id, position, url)
				VALUES ($1, $2, $3)`, string(r.ID), i, url); err != nil {
				return err
			}
		}
		return nil
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("review.Store.Create: %w", types.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("review.Store.Create: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, page types.Page) ([]Review, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM reviews`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("review.Store.List count: %w", err)
	}
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.estimate_id, r.user_id, r.stars, r.content, r.created_at,
		       COALESCE(array_agg(ri.url ORDER BY ri.position) FILTER (WHERE ri.url IS NOT NULL), '{}')
		FROM reviews r
		LEFT JOIN review_images ri ON ri.review_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id
		LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("review.Store.List: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Review, error) {
		var r Review
		err := row.Scan(&r.ID, &r.EstimateID, &r.UserID, &r.Stars, &r.Content, &r.CreatedAt, &r.Images)
		return r, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("review.Store.List scan: %w", err)
	}
	return items, total, nil
}
