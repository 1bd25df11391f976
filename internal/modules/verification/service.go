package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"charter/internal/types"
)

type Repository interface {
	IncrSends(ctx context.Context, phone string, window time.Duration) (int64, error)
	SaveCode(ctx context.Context, phone, code string, ttl time.Duration) error
	Code(ctx context.Context, phone string) (string, bool, error)
	MarkVerified(ctx context.Context, phone string, ttl time.Duration) error
	IsVerified(ctx context.Context, phone string) (bool, error)
}

var _ Repository = (*Store)(nil)

type Service struct {
	store  Repository
	sender CodeSender
	// newCode is swapped in tests.
	newCode func() (string, error)
}

func NewService(store Repository, sender CodeSender) *Service {
	return &Service{store: store, sender: sender, newCode: randomCode}
}

// NormalizePhone strips separators and validates a domestic mobile number.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ':
		default:
			return "", types.FieldErrors{"phone": "must contain digits only"}
		}
	}
	phone := b.String()
	if len(phone) < 10 || len(phone) > 11 || !strings.HasPrefix(phone, "01") {
		return "", types.FieldErrors{"phone": "must be a 10 or 11 digit mobile number"}
	}
	return phone, nil
}

func (s *Service) SendCode(ctx context.Context, rawPhone string) error {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}
	n, err := s.store.IncrSends(ctx, phone, rateWindow)
	if err != nil {
		return fmt.Errorf("verification.Service.SendCode: %w", err)
	}
	if n > maxSendsHour {
		return ErrRateLimited
	}
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("verification.Service.SendCode: %w", err)
	}
	if err := s.store.SaveCode(ctx, phone, code, codeTTL); err != nil {
		return fmt.Errorf("verification.Service.SendCode: %w", err)
	}
	if err := s.sender.Send(ctx, phone, code); err != nil {
		return fmt.Errorf("verification.Service.SendCode: %w", err)
	}
	return nil
}

func (s *Service) Verify(ctx context.Context, rawPhone, code string) error {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}
	want, ok, err := s.store.Code(ctx, phone)
	if err != nil {
		return fmt.Errorf("verification.Service.Verify: %w", err)
	}
	if !ok {
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.TrimSpace(code))) != 1 {
		return ErrCodeMismatch
	}
	if err := s.store.MarkVerified(ctx, phone, verifiedTTL); err != nil {
		return fmt.Errorf("verification.Service.Verify: %w", err)
	}
	return nil
}

func (s *Service) IsVerified(ctx context.Context, rawPhone string) (bool, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return false, err
	}
	return s.store.IsVerified(ctx, phone)
}

func randomCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
