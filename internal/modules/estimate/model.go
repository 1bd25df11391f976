// README: Estimate aggregate, status lifecycle and reference enums.
package estimate

import (
	"strings"
	"time"

	"charter/internal/modules/pricing"
	"charter/internal/types"
)

type Status string

const (
	StatusUnderReview     Status = "UNDER_REVIEW"
	StatusAwaitingDeposit Status = "AWAITING_DEPOSIT"
	StatusConfirmed       Status = "CONFIRMED"
)

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s Status) Valid() bool {
	switch s {
	case StatusUnderReview, StatusAwaitingDeposit, StatusConfirmed:
		return true
	}
	return false
}

// AllowedTransitions is the modeled lifecycle. Overrides may bypass it.
var AllowedTransitions = map[Status][]Status{
	StatusUnderReview:     {StatusAwaitingDeposit},
	StatusAwaitingDeposit: {StatusConfirmed},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Purpose string

const (
	PurposeTour      Purpose = "TOUR"
	PurposeEvent     Purpose = "EVENT"
	PurposeSchool    Purpose = "SCHOOL"
	PurposeCorporate Purpose = "CORPORATE"
	PurposeWedding   Purpose = "WEDDING"
	PurposeOther     Purpose = "OTHER"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeTour, PurposeEvent, PurposeSchool, PurposeCorporate, PurposeWedding, PurposeOther:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCard         PaymentMethod = "CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

var legacyPaymentMethods = map[string]PaymentMethod{
	"현금":   PaymentCash,
	"카드":   PaymentCard,
	"계좌이체": PaymentBankTransfer,
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	s = strings.TrimSpace(s)
	if m, ok := legacyPaymentMethods[s]; ok {
		return m, true
	}
	m := PaymentMethod(strings.ToUpper(s))
	switch m {
	case PaymentCash, PaymentCard, PaymentBankTransfer:
		return m, true
	}
	return "", false
}

// Address coordinates are opaque decimal strings; nothing is geocoded.
type Address struct {
	Name      string
	Latitude  string
	Longitude string
}

type Payment struct {
	Method    PaymentMethod
	PayerName string
}

type Vehicle struct {
	Class pricing.VehicleClass
	Seats int
	Count int
}

// Quote is the price snapshot taken at creation. It is never rewritten.
type Quote struct {
	Price        types.Money
	VehicleClass pricing.VehicleClass
	TripKind     pricing.TripKind
}

type Estimate struct {
	ID                types.ID
	OwnerID           *types.ID
	TripKind          pricing.TripKind
	Departure         Address
	Destination       Address
	Stopover          *Address
	DepartureAt       time.Time
	ReturnAt          *time.Time
	PassengerCount    *int
	Payment           *Payment
	Quote             Quote
	Vehicle           Vehicle
	Status            Status
	Purpose           Purpose
	Requests          string
	DriverAccompanied bool
	Price             types.Money
	PriceChanged      bool
	IsFinished        bool
	FinishedDate      *time.Time
	CreatedAt         time.Time
}

// OwnedBy reports whether userID owns e. Anonymous estimates have no owner.
func (e *Estimate) OwnedBy(userID types.ID) bool {
	return e.OwnerID != nil && userID != "" && *e.OwnerID == userID
}

// Event sources recorded on status changes.
const (
	SourceUser            = "user"
	SourcePartnerCallback = "partner_callback"
	SourceAdmin           = "admin"
	SourceSweep           = "sweep"
)

type Event struct {
	ID         int64
	EstimateID types.ID
	FromStatus *Status
	ToStatus   Status
	Source     string
	Actor      string
	CreatedAt  time.Time
}

// StatusChange is what an unconditional status write observed.
type StatusChange struct {
	From    Status
	OwnerID *types.ID
}

// AdminUpdate carries the administrative fields a correction may set.
// Nil fields are left unchanged.
type AdminUpdate struct {
	VehicleClass *pricing.VehicleClass
	VehicleCount *int
	Price        *int64
	Status       *Status
}
