// README: Estimate service implements creation, reads and status changes.
package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"charter/internal/modules/notification"
	"charter/internal/modules/outbox"
	"charter/internal/modules/pricing"
	"charter/internal/types"
)

type Repository interface {
	Create(ctx context.Context, e *Estimate, msgs ...outbox.Message) error
	Get(ctx context.Context, id types.ID) (*Estimate, error)
	List(ctx context.Context, owner types.ID, finished *bool, page types.Page) ([]Estimate, int, error)
	ListByStatus(ctx context.Context, status Status) ([]Estimate, error)
	ListUnfinishedConfirmed(ctx context.Context) ([]Estimate, error)
	Delete(ctx context.Context, id, owner types.ID) error
	UpdateStatus(ctx context.Context, id types.ID, to Status) (StatusChange, error)
	CompareAndSetStatus(ctx context.Context, id types.ID, from, to Status) (bool, error)
	SaveAdministrative(ctx context.Context, e *Estimate) error
	MarkFinished(ctx context.Context, id types.ID, finishedOn time.Time) (bool, error)
	AppendEvent(ctx context.Context, ev *Event) error
}

var _ Repository = (*Store)(nil)

// Notifier delivers user and admin notifications. Failures never roll back
// a status change.
type Notifier interface {
	NotifyUser(ctx context.Context, userID types.ID, m notification.Message) error
	NotifyAdmins(ctx context.Context, m notification.Message) error
}

type Service struct {
	store     Repository
	notifier  Notifier
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
	sheetFont string
}

func NewService(store Repository, notifier Notifier, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, notifier: notifier, logger: logger, loc: loc, now: time.Now}
}

// DateTimeLayout is the wire format for departure and return times.
const DateTimeLayout = "2006-01-02 15:04"

type CreateCommand struct {
	OwnerID           *types.ID
	TripKind          pricing.TripKind
	Departure         Address
	Destination       Address
	Stopover          *Address
	DepartureAt       time.Time
	ReturnAt          *time.Time
	PassengerCount    *int
	Payment           *Payment
	Vehicle           Vehicle
	Price             int64
	Purpose           Purpose
	Requests          string
	DriverAccompanied bool
}

type OverrideCommand struct {
	ID     types.ID
	Status Status
	Source string
	Caller string
}

func validateAddress(errs types.FieldErrors, field string, a Address) {
	if strings.TrimSpace(a.Name) == "" {
		errs.Add(field+".name", "is required")
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(a.Latitude), 64); err != nil {
		errs.Add(field+".latitude", "must be a decimal number")
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(a.Longitude), 64); err != nil {
		errs.Add(field+".longitude", "must be a decimal number")
	}
}

func (cmd CreateCommand) validate() error {
	errs := types.FieldErrors{}
	if !cmd.TripKind.Valid() {
		errs.Add("trip_kind", "must be one of ROUND_TRIP, ONE_WAY, SHUTTLE")
	}
	validateAddress(errs, "departure", cmd.Departure)
	validateAddress(errs, "destination", cmd.Destination)
	if cmd.Stopover != nil {
		validateAddress(errs, "stopover", *cmd.Stopover)
	}
	if cmd.DepartureAt.IsZero() {
		errs.Add("departure_at", "is required")
	}
	if cmd.ReturnAt != nil && cmd.ReturnAt.Before(cmd.DepartureAt) {
		errs.Add("return_at", "must not be before departure_at")
	}
	if cmd.PassengerCount != nil {
		switch n := *cmd.PassengerCount; {
		case n < 1:
			errs.Add("passenger_count", "must be a positive number or undetermined")
		case n > pricing.MaxPassengers:
			errs.Add("passenger_count", fmt.Sprintf("must not exceed %d", pricing.MaxPassengers))
		}
	}
	if cmd.Payment != nil {
		if _, ok := ParsePaymentMethod(string(cmd.Payment.Method)); !ok {
			errs.Add("payment.method", "must be one of CASH, CARD, BANK_TRANSFER")
		}
		if strings.TrimSpace(cmd.Payment.PayerName) == "" {
			errs.Add("payment.payer_name", "is required")
		}
	}
	if !cmd.Vehicle.Class.Valid() {
		errs.Add("vehicle.class", "must be standard or premium")
	}
	if cmd.Vehicle.Seats < 1 {
		errs.Add("vehicle.seats", "must be positive")
	}
	if cmd.Vehicle.Count < 1 {
		errs.Add("vehicle.count", "must be positive")
	}
	if cmd.Price <= 0 {
		errs.Add("price", "must be positive")
	}
	if !cmd.Purpose.Valid() {
		errs.Add("purpose", "must be one of TOUR, EVENT, SCHOOL, CORPORATE, WEDDING, OTHER")
	}
	return errs.Err()
}

// partnerPayload is what the partner system receives for a new estimate.
type partnerPayload struct {
	EstimateID  string `json:"estimate_id"`
	TripKind    string `json:"trip_kind"`
	Departure   string `json:"departure"`
	Destination string `json:"destination"`
	DepartureAt string `json:"departure_at"`
	ReturnAt    string `json:"return_at,omitempty"`
	Passengers  string `json:"passenger_count"`
	Vehicle     string `json:"vehicle_class"`
	Count       int    `json:"vehicle_count"`
	Price       int64  `json:"price"`
	Purpose     string `json:"purpose"`
}

func newPartnerMessage(e *Estimate) (outbox.Message, error) {
	p := partnerPayload{
		EstimateID:  string(e.ID),
		TripKind:    string(e.TripKind),
		Departure:   e.Departure.Name,
		Destination: e.Destination.Name,
		DepartureAt: e.DepartureAt.Format(DateTimeLayout),
		Passengers:  "undetermined",
		Vehicle:     string(e.Vehicle.Class),
		Count:       e.Vehicle.Count,
		Price:       e.Quote.Price.Amount,
		Purpose:     string(e.Purpose),
	}
	if e.ReturnAt != nil {
		p.ReturnAt = e.ReturnAt.Format(DateTimeLayout)
	}
	if e.PassengerCount != nil {
		p.Passengers = strconv.Itoa(*e.PassengerCount)
	}
	return outbox.NewMessage(outbox.TopicEstimateCreated, p)
}

// Create stores a new estimate in UNDER_REVIEW with the client-supplied
// price frozen as the quote. The partner is notified through the outbox.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Estimate, error) {
	if err := cmd.validate(); err != nil {
		return nil, fmt.Errorf("estimate.Service.Create: %w", err)
	}
	now := s.now()
	price := types.Won(cmd.Price)
	e := &Estimate{
		ID:                types.NewID(),
		OwnerID:           cmd.OwnerID,
		TripKind:          cmd.TripKind,
		Departure:         cmd.Departure,
		Destination:       cmd.Destination,
		Stopover:          cmd.Stopover,
		DepartureAt:       cmd.DepartureAt,
		ReturnAt:          cmd.ReturnAt,
		PassengerCount:    cmd.PassengerCount,
		Payment:           cmd.Payment,
		Quote:             Quote{Price: price, VehicleClass: cmd.Vehicle.Class, TripKind: cmd.TripKind},
		Vehicle:           cmd.Vehicle,
		Status:            StatusUnderReview,
		Purpose:           cmd.Purpose,
		Requests:          cmd.Requests,
		DriverAccompanied: cmd.DriverAccompanied,
		Price:             price,
		CreatedAt:         now,
	}
	msg, err := newPartnerMessage(e)
	if err != nil {
		return nil, fmt.Errorf("estimate.Service.Create: %w: %w", types.ErrPersistence, err)
	}
	if err := s.store.Create(ctx, e, msg); err != nil {
		return nil, fmt.Errorf("estimate.Service.Create: %w: %w", types.ErrPersistence, err)
	}
	s.logger.InfoContext(ctx, "estimate created",
		slog.String("estimate_id", string(e.ID)),
		slog.String("trip_kind", string(e.TripKind)),
		slog.Int64("price", e.Price.Amount),
	)
	return e, nil
}

func (s *Service) List(ctx context.Context, owner types.ID, finished *bool, page types.Page) ([]Estimate, int, error) {
	items, total, err := s.store.List(ctx, owner, finished, page)
	if err != nil {
		return nil, 0, fmt.Errorf("estimate.Service.List: %w", err)
	}
	return items, total, nil
}

// Get returns the estimate only to its owner; anything else is not found.
func (s *Service) Get(ctx context.Context, id, owner types.ID) (*Estimate, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("estimate.Service.Get: %w", err)
	}
	if !e.OwnedBy(owner) {
		return nil, fmt.Errorf("estimate.Service.Get: %w", types.ErrNotFound)
	}
	return e, nil
}

func (s *Service) GetAny(ctx context.Context, id types.ID) (*Estimate, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("estimate.Service.GetAny: %w", err)
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id, owner types.ID) error {
	if err := s.store.Delete(ctx, id, owner); err != nil {
		return fmt.Errorf("estimate.Service.Delete: %w", err)
	}
	s.logger.InfoContext(ctx, "estimate deleted", slog.String("estimate_id", string(id)))
	return nil
}

// OverrideStatus sets the status without consulting AllowedTransitions.
// It is reserved for trusted callers (partner callback, admin).
func (s *Service) OverrideStatus(ctx context.Context, cmd OverrideCommand) error {
	if !cmd.Status.Valid() {
		return fmt.Errorf("estimate.Service.OverrideStatus: %w", types.FieldErrors{"status": "unknown status"})
	}
	change, err := s.store.UpdateStatus(ctx, cmd.ID, cmd.Status)
	if err != nil {
		return fmt.Errorf("estimate.Service.OverrideStatus: %w", err)
	}
	s.afterOverride(ctx, cmd.ID, change, cmd.Status, cmd.Source, cmd.Caller)
	return nil
}

func (s *Service) afterOverride(ctx context.Context, id types.ID, change StatusChange, to Status, source, caller string) {
	from := change.From
	s.recordEvent(ctx, &Event{
		EstimateID: id,
		FromStatus: &from,
		ToStatus:   to,
		Source:     source,
		Actor:      caller,
		CreatedAt:  s.now(),
	})
	s.logger.InfoContext(ctx, "estimate status override",
		slog.String("estimate_id", string(id)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("source", source),
		slog.String("caller", caller),
		slog.Bool("modeled", CanTransition(from, to)),
	)
	if to == StatusConfirmed && from != StatusConfirmed {
		s.notifyOwner(ctx, id, change.OwnerID, reservationCompleteMessage(id))
	}
}

// recordEvent appends to the audit log. A failed append does not fail the
// status change that already committed.
func (s *Service) recordEvent(ctx context.Context, ev *Event) {
	if err := s.store.AppendEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "estimate event not recorded",
			slog.String("estimate_id", string(ev.EstimateID)),
			slog.String("source", ev.Source),
			slog.Any("error", err))
	}
}

// Transition applies a modeled lifecycle step.
func (s *Service) Transition(ctx context.Context, id types.ID, to Status, actor string) (*Estimate, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("estimate.Service.Transition: %w", err)
	}
	if !CanTransition(e.Status, to) {
		return nil, fmt.Errorf("estimate.Service.Transition %s -> %s: %w", e.Status, to, types.ErrInvalidState)
	}
	ok, err := s.store.CompareAndSetStatus(ctx, id, e.Status, to)
	if err != nil {
		return nil, fmt.Errorf("estimate.Service.Transition: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("estimate.Service.Transition: %w", types.ErrConflict)
	}
	from := e.Status
	e.Status = to
	s.recordEvent(ctx, &Event{
		EstimateID: id,
		FromStatus: &from,
		ToStatus:   to,
		Source:     SourceAdmin,
		Actor:      actor,
		CreatedAt:  s.now(),
	})
	s.logger.InfoContext(ctx, "estimate transitioned",
		slog.String("estimate_id", string(id)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	if to == StatusConfirmed {
		s.notifyOwner(ctx, id, e.OwnerID, reservationCompleteMessage(id))
	}
	return e, nil
}

// UpdateAdministrative applies partner/admin corrections. A price change
// sets PriceChanged and leaves the quote untouched; a status change is an
// override.
func (s *Service) UpdateAdministrative(ctx context.Context, id types.ID, upd AdminUpdate, caller string) (*Estimate, error) {
	errs := types.FieldErrors{}
	if upd.VehicleClass != nil && !upd.VehicleClass.Valid() {
		errs.Add("vehicle_class", "must be standard or premium")
	}
	if upd.VehicleCount != nil && *upd.VehicleCount < 1 {
		errs.Add("vehicle_count", "must be positive")
	}
	if upd.Price != nil && *upd.Price <= 0 {
		errs.Add("price", "must be positive")
	}
	if upd.Status != nil && !upd.Status.Valid() {
		errs.Add("status", "unknown status")
	}
	if err := errs.Err(); err != nil {
		return nil, fmt.Errorf("estimate.Service.UpdateAdministrative: %w", err)
	}

	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("estimate.Service.UpdateAdministrative: %w", err)
	}
	prev := e.Status
	if upd.VehicleClass != nil {
		e.Vehicle.Class = *upd.VehicleClass
	}
	if upd.VehicleCount != nil {
		e.Vehicle.Count = *upd.VehicleCount
	}
	if upd.Price != nil && *upd.Price != e.Price.Amount {
		e.Price = types.Won(*upd.Price)
		e.PriceChanged = true
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	if err := s.store.SaveAdministrative(ctx, e); err != nil {
		return nil, fmt.Errorf("estimate.Service.UpdateAdministrative: %w", err)
	}
	if upd.Status != nil {
		s.afterOverride(ctx, id, StatusChange{From: prev, OwnerID: e.OwnerID}, e.Status, SourceAdmin, caller)
	}
	return e, nil
}

func (s *Service) notifyOwner(ctx context.Context, id types.ID, owner *types.ID, m notification.Message) {
	if owner == nil {
		s.logger.InfoContext(ctx, "notification skipped for anonymous estimate",
			slog.String("estimate_id", string(id)), slog.String("kind", m.Kind))
		return
	}
	if err := s.notifier.NotifyUser(ctx, *owner, m); err != nil {
		s.logger.WarnContext(ctx, "user notification failed",
			slog.String("estimate_id", string(id)),
			slog.String("kind", m.Kind),
			slog.Any("error", err),
		)
	}
}

func reservationCompleteMessage(id types.ID) notification.Message {
	return notification.Message{
		Title: "Reservation complete",
		Body:  "Your charter reservation is confirmed.",
		Kind:  notification.KindReservationComplete,
		Data:  map[string]string{"estimate_id": string(id)},
	}
}

