// README: Pricing service computes charter fare quotes.
package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"charter/internal/types"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Quote validates req and prices it.
func (s *Service) Quote(ctx context.Context, req TripRequest) (PriceQuote, error) {
	if err := Validate(req); err != nil {
		return PriceQuote{}, fmt.Errorf("pricing.Service.Quote: %w", err)
	}
	q := Quote(req)
	s.logger.DebugContext(ctx, "price quoted",
		slog.Int("distance_km", req.DistanceKm),
		slog.String("trip_kind", string(req.Kind)),
		slog.Int("days", q.Days),
		slog.Int64("final_price", q.FinalPrice),
	)
	return q, nil
}

// Validate reports field errors for a request built outside ParseTripRequest.
func Validate(req TripRequest) error {
	errs := types.FieldErrors{}
	switch {
	case req.DistanceKm < 0:
		errs.Add("distance", "must not be negative")
	case req.DistanceKm > MaxDistanceKm:
		errs.Add("distance", distanceLimitMsg)
	}
	if n, ok := req.Passengers.Determinate(); ok && n > MaxPassengers {
		errs.Add("passenger_count", passengerLimitMsg)
	}
	if !req.Kind.Valid() {
		errs.Add("trip_kind", "must be one of ROUND_TRIP, ONE_WAY, SHUTTLE")
	}
	if req.DepartureDate.IsZero() {
		errs.Add("departure_date", "is required")
	}
	if req.ReturnDate != nil && !req.DepartureDate.IsZero() &&
		calendarDate(*req.ReturnDate).Before(calendarDate(req.DepartureDate)) {
		errs.Add("return_date", "must not be before departure_date")
	}
	return errs.Err()
}

// Quote prices a trip. It is pure and safe for concurrent use; callers are
// expected to have validated req.
func Quote(req TripRequest) PriceQuote {
	q := PriceQuote{
		BaseFare:          baseFare(req.DistanceKm),
		WaitingFee:        waitingFee(req.DistanceKm),
		DistanceSurcharge: distanceSurcharge(req.DistanceKm),
		Days:              tripDays(req.DepartureDate, req.ReturnDate),
		SeatClass:         seatClass,
		VehicleCount:      recommendVehicles(req.Passengers),
	}

	price := q.BaseFare + q.WaitingFee + q.DistanceSurcharge
	if req.Kind == TripOneWay {
		discounted := price * oneWayPercent / 100
		q.Adjustments = append(q.Adjustments, Adjustment{Name: AdjustmentOneWay, Delta: discounted - price})
		price = discounted
	}

	add := func(name string, delta int64) {
		q.Adjustments = append(q.Adjustments, Adjustment{Name: name, Delta: delta})
		price += delta
	}
	if isWeekday(req.DepartureDate) {
		add(AdjustmentWeekday, weekdaySurcharge)
	}
	if isPeakSeason(req.DepartureDate) {
		add(AdjustmentPeakSeason, peakSeasonSurcharge)
	}
	if q.Days > 1 {
		add(AdjustmentExtraDays, extraDayCharge*int64(q.Days-1))
	}
	if req.DriverAccompanied {
		add(AdjustmentDriver, driverAccompanyFee)
	}

	q.FinalPrice = price
	q.PremiumPrice = price + premiumDelta
	return q
}

func baseFare(km int) int64 {
	if km <= shortTripMaxKm {
		return baseFareShort
	}
	return baseFareLong
}

func waitingFee(km int) int64 {
	for _, b := range waitingBuckets {
		if km < b.belowKm {
			return b.fee
		}
	}
	return 0
}

// distanceSurcharge is continuous at both band edges.
func distanceSurcharge(km int) int64 {
	switch {
	case km < surchargeStartKm:
		return 0
	case km < secondBandStartKm:
		return int64(km-surchargeStartKm) * firstBandPerKm
	default:
		return int64(secondBandStartKm-surchargeStartKm)*firstBandPerKm +
			int64(km-secondBandStartKm)*secondBandPerKm
	}
}

// tripDays counts calendar days inclusively; a same-day return is one day.
func tripDays(departure time.Time, ret *time.Time) int {
	if ret == nil {
		return 1
	}
	days := int(calendarDate(*ret).Sub(calendarDate(departure)).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

func isPeakSeason(d time.Time) bool {
	switch d.Month() {
	case time.April, time.May, time.September, time.October:
		return true
	}
	return false
}

func recommendVehicles(p PassengerCount) int {
	n, ok := p.Determinate()
	if !ok || n <= busSeats {
		return 1
	}
	return (n + busSeats - 1) / busSeats
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
