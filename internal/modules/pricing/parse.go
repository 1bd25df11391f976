package pricing

import (
	"fmt"
	"strings"
	"time"

	"charter/internal/types"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	distanceLimitMsg  = fmt.Sprintf("must not exceed %d", MaxDistanceKm)
	passengerLimitMsg = fmt.Sprintf("must not exceed %d", MaxPassengers)
)

// QuoteInput is the approximate-price request body.
type QuoteInput struct {
	Distance            *int   `json:"distance"`
	DepartureDate       string `json:"departure_date"`
	ReturnDate          string `json:"return_date"`
	TripKind            string `json:"trip_kind"`
	AccompaniedByDriver *bool  `json:"accompanied_by_driver"`
	PassengerCount      string `json:"passenger_count"`
}

// ParseTripRequest converts wire input into a TripRequest, collecting every
// field problem into a single types.FieldErrors.
func ParseTripRequest(in QuoteInput) (TripRequest, error) {
	errs := types.FieldErrors{}
	var req TripRequest

	switch {
	case in.Distance == nil:
		errs.Add("distance", "is required")
	case *in.Distance < 0:
		errs.Add("distance", "must not be negative")
	case *in.Distance > MaxDistanceKm:
		errs.Add("distance", distanceLimitMsg)
	default:
		req.DistanceKm = *in.Distance
	}

	if strings.TrimSpace(in.DepartureDate) == "" {
		errs.Add("departure_date", "is required")
	} else if d, err := time.Parse(DateLayout, strings.TrimSpace(in.DepartureDate)); err != nil {
		errs.Add("departure_date", "must be formatted as YYYY-MM-DD")
	} else {
		req.DepartureDate = d
	}

	if rd := strings.TrimSpace(in.ReturnDate); rd != "" {
		d, err := time.Parse(DateLayout, rd)
		if err != nil {
			errs.Add("return_date", "must be formatted as YYYY-MM-DD")
		} else {
			req.ReturnDate = &d
			if !req.DepartureDate.IsZero() && d.Before(req.DepartureDate) {
				errs.Add("return_date", "must not be before departure_date")
			}
		}
	}

	if strings.TrimSpace(in.TripKind) == "" {
		errs.Add("trip_kind", "is required")
	} else if k, ok := ParseTripKind(in.TripKind); !ok {
		errs.Add("trip_kind", "must be one of ROUND_TRIP, ONE_WAY, SHUTTLE")
	} else {
		req.Kind = k
	}

	if in.AccompaniedByDriver == nil {
		errs.Add("accompanied_by_driver", "is required")
	} else {
		req.DriverAccompanied = *in.AccompaniedByDriver
	}

	if strings.TrimSpace(in.PassengerCount) == "" {
		errs.Add("passenger_count", "is required")
	} else if p, ok := ParsePassengerCount(in.PassengerCount); !ok {
		errs.Add("passenger_count", "must be a positive number or undetermined")
	} else if n, ok := p.Determinate(); ok && n > MaxPassengers {
		errs.Add("passenger_count", passengerLimitMsg)
	} else {
		req.Passengers = p
	}

	if err := errs.Err(); err != nil {
		return TripRequest{}, err
	}
	return req, nil
}
