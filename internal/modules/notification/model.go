// README: Push notification records, FCM tokens and message kinds.
package notification

import (
	"errors"
	"time"

	"charter/internal/types"
)

// Kinds stored on records and sent in the FCM data payload.
const (
	KindReservationComplete = "reservation_complete"
	KindTripFinished        = "trip_finished"
	KindDepositReminder     = "deposit_reminder"
	KindConfirmRequest      = "confirm_request"
	KindAdminMessage        = "admin_message"
)

var (
	// ErrDelivery wraps every push failure. Callers log it and move on.
	ErrDelivery = errors.New("notification delivery failed")
	ErrNoToken  = errors.New("no device token registered")
)

type Message struct {
	Title string
	Body  string
	Kind  string
	Data  map[string]string
}

type Record struct {
	ID        int64
	UserID    types.ID
	Title     string
	Body      string
	Kind      string
	IsRead    bool
	CreatedAt time.Time
}
