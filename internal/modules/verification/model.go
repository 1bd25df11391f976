// README: Phone verification codes with Redis-held TTLs and send limits.
package verification

import (
	"errors"
	"time"
)

const (
	codeDigits   = 6
	codeTTL      = 3 * time.Minute
	verifiedTTL  = 10 * time.Minute
	rateWindow   = time.Hour
	maxSendsHour = 5
)

var (
	ErrRateLimited  = errors.New("too many verification requests")
	ErrCodeMismatch = errors.New("verification code mismatch")
	ErrCodeExpired  = errors.New("verification code expired or missing")
)
