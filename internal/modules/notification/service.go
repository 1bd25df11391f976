// README: Notification service: user inbox, token registry and FCM delivery.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"charter/internal/types"
)

type Repository interface {
	UpsertToken(ctx context.Context, userID types.ID, token string) error
	TokenFor(ctx context.Context, userID types.ID) (string, error)
	Insert(ctx context.Context, r *Record) error
	List(ctx context.Context, userID types.ID, page types.Page) ([]Record, int, error)
	MarkRead(ctx context.Context, userID types.ID, id int64) error
}

var _ Repository = (*Store)(nil)

// Sender pushes a message and returns the provider message id.
type Sender interface {
	SendToToken(ctx context.Context, token string, m Message) (string, error)
	SendToTopic(ctx context.Context, topic string, m Message) (string, error)
}

type Service struct {
	store      Repository
	sender     Sender
	adminTopic string
	logger     *slog.Logger
}

func NewService(store Repository, sender Sender, adminTopic string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, sender: sender, adminTopic: adminTopic, logger: logger}
}

// NotifyUser records m in the user's inbox and pushes it to their device.
// The inbox record is kept even when the push fails.
func (s *Service) NotifyUser(ctx context.Context, userID types.ID, m Message) error {
	rec := &Record{UserID: userID, Title: m.Title, Body: m.Body, Kind: m.Kind}
	if err := s.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("notification.Service.NotifyUser: %w: %w", ErrDelivery, err)
	}
	id, err := s.push(ctx, userID, m)
	if err != nil {
		return fmt.Errorf("notification.Service.NotifyUser: %w: %w", ErrDelivery, err)
	}
	s.logger.InfoContext(ctx, "notification sent",
		slog.String("user_id", string(userID)),
		slog.String("kind", m.Kind),
		slog.String("message_id", id),
	)
	return nil
}

func (s *Service) push(ctx context.Context, userID types.ID, m Message) (string, error) {
	token, err := s.store.TokenFor(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.sender.SendToToken(ctx, token, m)
}

// Send delivers an operator-written message to one user. The inbox record
// is the delivery of record; pushed reports whether the device push also
// went out.
func (s *Service) Send(ctx context.Context, userID types.ID, title, body string) (pushed bool, err error) {
	errs := types.FieldErrors{}
	if strings.TrimSpace(string(userID)) == "" {
		errs.Add("user_id", "is required")
	}
	if strings.TrimSpace(title) == "" {
		errs.Add("title", "is required")
	}
	if strings.TrimSpace(body) == "" {
		errs.Add("body", "is required")
	}
	if err := errs.Err(); err != nil {
		return false, err
	}
	m := Message{Title: strings.TrimSpace(title), Body: strings.TrimSpace(body), Kind: KindAdminMessage}
	if err := s.store.Insert(ctx, &Record{UserID: userID, Title: m.Title, Body: m.Body, Kind: m.Kind}); err != nil {
		return false, fmt.Errorf("notification.Service.Send: %w", err)
	}
	id, err := s.push(ctx, userID, m)
	if err != nil {
		s.logger.WarnContext(ctx, "admin message not pushed",
			slog.String("user_id", string(userID)), slog.Any("error", err))
		return false, nil
	}
	s.logger.InfoContext(ctx, "admin message sent",
		slog.String("user_id", string(userID)),
		slog.String("message_id", id),
	)
	return true, nil
}

// NotifyAdmins pushes m to the admin topic.
func (s *Service) NotifyAdmins(ctx context.Context, m Message) error {
	if s.adminTopic == "" {
		return fmt.Errorf("notification.Service.NotifyAdmins: %w: admin topic not configured", ErrDelivery)
	}
	id, err := s.sender.SendToTopic(ctx, s.adminTopic, m)
	if err != nil {
		return fmt.Errorf("notification.Service.NotifyAdmins: %w: %w", ErrDelivery, err)
	}
	s.logger.InfoContext(ctx, "admin notification sent",
		slog.String("topic", s.adminTopic),
		slog.String("kind", m.Kind),
		slog.String("message_id", id),
	)
	return nil
}

func (s *Service) RegisterToken(ctx context.Context, userID types.ID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return types.FieldErrors{"fcm_token": "is required"}
	}
	if userID == "" {
		return fmt.Errorf("notification.Service.RegisterToken: %w: missing user", types.ErrValidation)
	}
	return s.store.UpsertToken(ctx, userID, token)
}

func (s *Service) List(ctx context.Context, userID types.ID, page types.Page) ([]Record, int, error) {
	return s.store.List(ctx, userID, page)
}

func (s *Service) MarkRead(ctx context.Context, userID types.ID, id int64) error {
	err := s.store.MarkRead(ctx, userID, id)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("notification %d: %w", id, types.ErrNotFound)
	}
	return err
}
