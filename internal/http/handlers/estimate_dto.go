package handlers

import (
	"strconv"
	"time"

	"charter/internal/modules/estimate"
	"charter/internal/modules/pricing"
)

type quoteDTO struct {
	Price        int64  `json:"price"`
	Currency     string `json:"currency"`
	VehicleClass string `json:"vehicle_class"`
	TripKind     string `json:"trip_kind"`
}

type estimateDTO struct {
	ID                  string      `json:"id"`
	TripKind            string      `json:"trip_kind"`
	Departure           addressDTO  `json:"departure"`
	Destination         addressDTO  `json:"destination"`
	Stopover            *addressDTO `json:"stopover,omitempty"`
	DepartureAt         string      `json:"departure_at"`
	ReturnAt            *string     `json:"return_at,omitempty"`
	PassengerCount      string      `json:"passenger_count"`
	Payment             *paymentDTO `json:"payment,omitempty"`
	Quote               quoteDTO    `json:"quote"`
	Vehicle             vehicleDTO  `json:"vehicle"`
	Status              string      `json:"status"`
	Purpose             string      `json:"purpose"`
	Requests            string      `json:"requests"`
	AccompaniedByDriver bool        `json:"accompanied_by_driver"`
	Price               int64       `json:"price"`
	PriceChanged        bool        `json:"price_changed"`
	IsFinished          bool        `json:"is_finished"`
	FinishedDate        *string     `json:"finished_date,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
}

func toEstimateDTO(e *estimate.Estimate) estimateDTO {
	out := estimateDTO{
		ID:          e.ID.String(),
		TripKind:    string(e.TripKind),
		Departure:   addressDTO(e.Departure),
		Destination: addressDTO(e.Destination),
		DepartureAt: e.DepartureAt.Format(estimate.DateTimeLayout),
		Quote: quoteDTO{
			Price:        e.Quote.Price.Amount,
			Currency:     e.Quote.Price.Currency,
			VehicleClass: string(e.Quote.VehicleClass),
			TripKind:     string(e.Quote.TripKind),
		},
		Vehicle: vehicleDTO{
			Class: string(e.Vehicle.Class),
			Seats: e.Vehicle.Seats,
			Count: e.Vehicle.Count,
		},
		Status:              string(e.Status),
		Purpose:             string(e.Purpose),
		Requests:            e.Requests,
		AccompaniedByDriver: e.DriverAccompanied,
		Price:               e.Price.Amount,
		PriceChanged:        e.PriceChanged,
		IsFinished:          e.IsFinished,
		CreatedAt:           e.CreatedAt,
	}
	if e.Stopover != nil {
		s := addressDTO(*e.Stopover)
		out.Stopover = &s
	}
	if e.ReturnAt != nil {
		r := e.ReturnAt.Format(estimate.DateTimeLayout)
		out.ReturnAt = &r
	}
	if e.PassengerCount != nil {
		out.PassengerCount = strconv.Itoa(*e.PassengerCount)
	} else {
		out.PassengerCount = pricing.Undetermined().String()
	}
	if e.Payment != nil {
		out.Payment = &paymentDTO{Method: string(e.Payment.Method), PayerName: e.Payment.PayerName}
	}
	if e.FinishedDate != nil {
		d := e.FinishedDate.Format(pricing.DateLayout)
		out.FinishedDate = &d
	}
	return out
}
