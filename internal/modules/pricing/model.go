// README: Pricing input/output types for charter trips.
package pricing

import (
	"strconv"
	"strings"
	"time"
)

type TripKind string

const (
	TripRoundTrip TripKind = "ROUND_TRIP"
	TripOneWay    TripKind = "ONE_WAY"
	TripShuttle   TripKind = "SHUTTLE"
)

var legacyTripKinds = map[string]TripKind{
	"왕복": TripRoundTrip,
	"편도": TripOneWay,
	"셔틀": TripShuttle,
}

// ParseTripKind accepts the enum value in any case or a legacy label.
func ParseTripKind(s string) (TripKind, bool) {
	s = strings.TrimSpace(s)
	if k, ok := legacyTripKinds[s]; ok {
		return k, true
	}
	k := TripKind(strings.ToUpper(s))
	return k, k.Valid()
}

func (k TripKind) Valid() bool {
	switch k {
	case TripRoundTrip, TripOneWay, TripShuttle:
		return true
	}
	return false
}

type VehicleClass string

const (
	VehicleStandard VehicleClass = "standard"
	VehiclePremium  VehicleClass = "premium"
)

func (c VehicleClass) Valid() bool {
	return c == VehicleStandard || c == VehiclePremium
}

// PassengerCount is either a positive head count or undetermined.
type PassengerCount struct {
	n int
}

const undeterminedToken = "undetermined"

func Undetermined() PassengerCount { return PassengerCount{} }

func Passengers(n int) PassengerCount {
	if n < 1 {
		return PassengerCount{}
	}
	return PassengerCount{n: n}
}

// ParsePassengerCount accepts a positive decimal numeral, "undetermined"
// or the legacy "미정" token.
func ParsePassengerCount(s string) (PassengerCount, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, undeterminedToken) || s == "미정" {
		return Undetermined(), true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return PassengerCount{}, false
	}
	return PassengerCount{n: n}, true
}

func (p PassengerCount) Determinate() (int, bool) {
	return p.n, p.n > 0
}

func (p PassengerCount) String() string {
	if p.n == 0 {
		return undeterminedToken
	}
	return strconv.Itoa(p.n)
}

// TripRequest is the pricing input. Dates are calendar dates; only the
// year, month and day are read.
type TripRequest struct {
	DistanceKm        int
	DepartureDate     time.Time
	ReturnDate        *time.Time
	Kind              TripKind
	DriverAccompanied bool
	Passengers        PassengerCount
}

// Adjustment is one named step applied after the distance-derived fare.
type Adjustment struct {
	Name  string
	Delta int64
}

type PriceQuote struct {
	BaseFare          int64
	WaitingFee        int64
	DistanceSurcharge int64
	Adjustments       []Adjustment
	Days              int
	FinalPrice        int64
	PremiumPrice      int64
	SeatClass         string
	VehicleCount      int
}

type PriceOption struct {
	Price int64
	Class VehicleClass
}

// PriceList returns the standard option followed by the premium option.
func (q PriceQuote) PriceList() []PriceOption {
	return []PriceOption{
		{Price: q.FinalPrice, Class: VehicleStandard},
		{Price: q.PremiumPrice, Class: VehiclePremium},
	}
}
