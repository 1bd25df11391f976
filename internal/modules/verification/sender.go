package verification

import (
	"context"
	"log/slog"
)

// CodeSender hands a code to the user, normally over SMS.
type CodeSender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log. It stands in for an SMS gateway in
// development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, phone, code string) error {
	s.logger.InfoContext(ctx, "verification code issued", slog.String("phone", phone), slog.String("code", code))
	return nil
}
