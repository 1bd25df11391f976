package pricing

// Tariff constants, all in KRW.
const (
	baseFareShort     int64 = 500000
	baseFareLong      int64 = 692000
	shortTripMaxKm          = 100
	surchargeStartKm        = 200
	secondBandStartKm       = 400
	firstBandPerKm    int64 = 3460
	secondBandPerKm   int64 = 2590

	oneWayPercent int64 = 80

	weekdaySurcharge    int64 = 150000
	peakSeasonSurcharge int64 = 200000
	extraDayCharge      int64 = 692000
	driverAccompanyFee  int64 = 150000
	premiumDelta        int64 = 150000

	busSeats  = 45
	seatClass = "45-seater"
)

// Upper bounds accepted on a quote request.
const (
	MaxDistanceKm = 100000
	MaxPassengers = 10000
)

// waitingBuckets lists exclusive upper bounds with their fee. Distances at
// or beyond the last bound pay nothing.
var waitingBuckets = []struct {
	belowKm int
	fee     int64
}{
	{200, 150000},
	{300, 90000},
	{400, 30000},
}

const (
	AdjustmentOneWay     = "one_way_discount"
	AdjustmentWeekday    = "weekday_surcharge"
	AdjustmentPeakSeason = "peak_season_surcharge"
	AdjustmentExtraDays  = "extra_day_charge"
	AdjustmentDriver     = "driver_accompaniment"
)
