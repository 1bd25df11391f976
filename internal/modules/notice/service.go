package notice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charter/internal/types"
)

type Repository interface {
	Create(ctx context.Context, n *Notice) error
	List(ctx context.Context, page types.Page) ([]Notice, int, error)
}

var _ Repository = (*Store)(nil)

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	Type   string
	Title  string
	Detail string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Notice, error) {
	errs := types.FieldErrors{}
	typ, ok := ParseType(cmd.Type)
	if !ok {
		errs.Add("type", "must be GENERAL or VERSION")
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		errs.Add("title", "is required")
	}
	detail := strings.TrimSpace(cmd.Detail)
	if detail == "" {
		errs.Add("detail", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, fmt.Errorf("notice.Service.Create: %w", err)
	}
	now := time.Now()
	n := &Notice{ID: types.NewID(), Type: typ, Title: title, Detail: detail, CreatedAt: now, UpdatedAt: now}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("notice.Service.Create: %w", err)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, page types.Page) ([]Notice, int, error) {
	return s.store.List(ctx, page)
}
