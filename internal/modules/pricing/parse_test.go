package pricing

import (
	"errors"
	"math"
	"testing"

	"charter/internal/types"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func validInput() QuoteInput {
	return QuoteInput{
		Distance:            intPtr(150),
		DepartureDate:       "2026-03-02",
		ReturnDate:          "2026-03-02",
		TripKind:            "ROUND_TRIP",
		AccompaniedByDriver: boolPtr(false),
		PassengerCount:      "40",
	}
}

func TestParseTripRequest_Valid(t *testing.T) {
	req, err := ParseTripRequest(validInput())
	if err != nil {
		t.Fatalf("ParseTripRequest() error = %v", err)
	}
	if req.DistanceKm != 150 || req.Kind != TripRoundTrip || req.ReturnDate == nil {
		t.Errorf("unexpected request: %+v", req)
	}
	if n, ok := req.Passengers.Determinate(); !ok || n != 40 {
		t.Errorf("Passengers = %v", req.Passengers)
	}
}

func TestParseTripRequest_LegacyLabels(t *testing.T) {
	in := validInput()
	in.TripKind = "편도"
	in.PassengerCount = "미정"
	req, err := ParseTripRequest(in)
	if err != nil {
		t.Fatalf("ParseTripRequest() error = %v", err)
	}
	if req.Kind != TripOneWay {
		t.Errorf("Kind = %s, want ONE_WAY", req.Kind)
	}
	if _, ok := req.Passengers.Determinate(); ok {
		t.Errorf("Passengers should be undetermined")
	}
}

func TestParseTripRequest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*QuoteInput)
		field string
	}{
		{"missing distance", func(in *QuoteInput) { in.Distance = nil }, "distance"},
		{"negative distance", func(in *QuoteInput) { in.Distance = intPtr(-1) }, "distance"},
		{"missing departure", func(in *QuoteInput) { in.DepartureDate = "" }, "departure_date"},
		{"bad departure", func(in *QuoteInput) { in.DepartureDate = "2026.03.02" }, "departure_date"},
		{"return before departure", func(in *QuoteInput) { in.ReturnDate = "2026-03-01" }, "return_date"},
		{"unknown trip kind", func(in *QuoteInput) { in.TripKind = "CIRCLE" }, "trip_kind"},
		{"missing driver flag", func(in *QuoteInput) { in.AccompaniedByDriver = nil }, "accompanied_by_driver"},
		{"zero passengers", func(in *QuoteInput) { in.PassengerCount = "0" }, "passenger_count"},
		{"garbage passengers", func(in *QuoteInput) { in.PassengerCount = "lots" }, "passenger_count"},
		{"distance over limit", func(in *QuoteInput) { in.Distance = intPtr(MaxDistanceKm + 1) }, "distance"},
		{"huge distance", func(in *QuoteInput) { in.Distance = intPtr(math.MaxInt) }, "distance"},
		{"passengers over limit", func(in *QuoteInput) { in.PassengerCount = "10001" }, "passenger_count"},
		{"passengers near max int", func(in *QuoteInput) { in.PassengerCount = "9223372036854775807" }, "passenger_count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)
			_, err := ParseTripRequest(in)
			if !errors.Is(err, types.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			fields, _ := types.Fields(err)
			if fields[tt.field] == "" {
				t.Errorf("expected error on %s, got %v", tt.field, fields)
			}
		})
	}
}

func TestParseTripRequest_AtLimits(t *testing.T) {
	in := validInput()
	in.Distance = intPtr(MaxDistanceKm)
	in.PassengerCount = "10000"
	req, err := ParseTripRequest(in)
	if err != nil {
		t.Fatalf("ParseTripRequest() error = %v", err)
	}
	q := Quote(req)
	if q.FinalPrice <= 0 || q.PremiumPrice <= q.FinalPrice {
		t.Errorf("prices out of range: final %d premium %d", q.FinalPrice, q.PremiumPrice)
	}
	if q.VehicleCount != 223 {
		t.Errorf("VehicleCount = %d, want 223", q.VehicleCount)
	}
}
