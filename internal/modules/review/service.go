// README: Review service enforces ownership, completion and uniqueness.
package review

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"charter/internal/modules/estimate"
	"charter/internal/types"
)

type Repository interface {
	Exists(ctx context.Context, userID, estimateID types.ID) (bool, error)
	Create(ctx context.Context, r *Review) error
	List(ctx context.Context, page types.Page) ([]Review, int, error)
}

var _ Repository = (*Store)(nil)

// Estimates resolves an estimate the caller owns.
type Estimates interface {
	Get(ctx context.Context, id, owner types.ID) (*estimate.Estimate, error)
}

type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type Service struct {
	store     Repository
	estimates Estimates
	images    ImageStore
	logger    *slog.Logger
}

func NewService(store Repository, estimates Estimates, images ImageStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, estimates: estimates, images: images, logger: logger}
}

type CreateCommand struct {
	UserID     types.ID
	EstimateID types.ID
	Stars      int
	Content    string
	Images     []Upload
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Review, error) {
	errs := types.FieldErrors{}
	if cmd.Stars < MinStars || cmd.Stars > MaxStars {
		errs.Add("stars", fmt.Sprintf("must be between %d and %d", MinStars, MaxStars))
	}
	if len(cmd.Images) > MaxImages {
		errs.Add("images", fmt.Sprintf("at most %d images", MaxImages))
	}
	for _, img := range cmd.Images {
		if !strings.HasPrefix(img.ContentType, "image/") {
			errs.Add("images", "only image uploads are accepted")
			break
		}
	}
	if len(cmd.Images) > 0 && s.images == nil {
		errs.Add("images", "image uploads are not enabled")
	}
	if err := errs.Err(); err != nil {
		return nil, fmt.Errorf("review.Service.Create: %w", err)
	}

	e, err := s.estimates.Get(ctx, cmd.EstimateID, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("review.Service.Create: %w", err)
	}
	if !e.IsFinished {
		return nil, fmt.Errorf("review.Service.Create: %w", types.FieldErrors{"estimate_id": "trip has not finished yet"})
	}
	exists, err := s.store.Exists(ctx, cmd.UserID, cmd.EstimateID)
	if err != nil {
		return nil, fmt.Errorf("review.Service.Create: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("review.Service.Create: %w", types.ErrConflict)
	}

	r := &Review{
		ID:         types.NewID(),
		EstimateID: cmd.EstimateID,
		UserID:     cmd.UserID,
		Stars:      cmd.Stars,
		Content:    strings.TrimSpace(cmd.Content),
		CreatedAt:  time.Now(),
	}
	for i, img := range cmd.Images {
		key := fmt.Sprintf("reviews/%s/%d%s", r.ID, i, path.Ext(img.Filename))
		url, err := s.images.Put(ctx, key, img.ContentType, img.Body)
		if err != nil {
			return nil, fmt.Errorf("review.Service.Create: upload image %d: %w", i, err)
		}
		r.Images = append(r.Images, url)
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("review.Service.Create: %w", err)
	}
	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", string(r.ID)),
		slog.String("estimate_id", string(r.EstimateID)),
		slog.Int("stars", r.Stars),
		slog.Int("images", len(r.Images)),
	)
	return r, nil
}

func (s *Service) List(ctx context.Context, page types.Page) ([]Review, int, error) {
	return s.store.List(ctx, page)
}
