// README: Notice store backed by PostgreSQL.
package notice

import (
	"context"
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

func (s *Store) Create(ctx context.Context, n *Notice) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notices (id, type, title, detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(n.ID), string(n.Type), n.Title, n.Detail, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("notice.Store.Create: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, page types.Page) ([]Notice, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM notices`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("notice.Store.List count: %w", err)
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, type, title, detail, created_at, updated_at
		FROM notices
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("notice.Store.List: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notice, error) {
		var n Notice
		err := row.Scan(&n.ID, &n.Type, &n.Title, &n.Detail, &n.CreatedAt, &n.UpdatedAt)
		return n, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("notice.Store.List scan: %w", err)
	}
	return items, total, nil
}
