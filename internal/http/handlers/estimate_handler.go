// README: Estimate endpoints for customers and the partner status callback.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"charter/internal/http/middleware"
	"charter/internal/modules/estimate"
	"charter/internal/modules/pricing"
	"charter/internal/types"
)

const estimateNotFound = "estimate not found"

type EstimateService interface {
	Create(ctx context.Context, cmd estimate.CreateCommand) (*estimate.Estimate, error)
	List(ctx context.Context, owner types.ID, finished *bool, page types.Page) ([]estimate.Estimate, int, error)
	Get(ctx context.Context, id, owner types.ID) (*estimate.Estimate, error)
	Delete(ctx context.Context, id, owner types.ID) error
	Sheet(ctx context.Context, id, owner types.ID) ([]byte, string, error)
	OverrideStatus(ctx context.Context, cmd estimate.OverrideCommand) error
}

type EstimateHandler struct {
	estimates EstimateService
}

func NewEstimateHandler(svc EstimateService) *EstimateHandler {
	return &EstimateHandler{estimates: svc}
}

type addressDTO struct {
	Name      string `json:"name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type paymentDTO struct {
	Method    string `json:"method"`
	PayerName string `json:"payer_name"`
}

type vehicleDTO struct {
	Class string `json:"class"`
	Seats int    `json:"seats"`
	Count int    `json:"count"`
}

type createEstimateReq struct {
	TripKind            string      `json:"trip_kind"`
	Departure           addressDTO  `json:"departure"`
	Destination         addressDTO  `json:"destination"`
	Stopover            *addressDTO `json:"stopover"`
	DepartureAt         string      `json:"departure_at"`
	ReturnAt            string      `json:"return_at"`
	PassengerCount      string      `json:"passenger_count"`
	Payment             *paymentDTO `json:"payment"`
	Vehicle             vehicleDTO  `json:"vehicle"`
	Price               int64       `json:"price"`
	Purpose             string      `json:"purpose"`
	Requests            string      `json:"requests"`
	AccompaniedByDriver bool        `json:"accompanied_by_driver"`
}

func (r createEstimateReq) command(owner string) (estimate.CreateCommand, error) {
	errs := types.FieldErrors{}
	cmd := estimate.CreateCommand{
		Departure:         estimate.Address(r.Departure),
		Destination:       estimate.Address(r.Destination),
		Vehicle:           estimate.Vehicle{Class: pricing.VehicleClass(strings.ToLower(strings.TrimSpace(r.Vehicle.Class))), Seats: r.Vehicle.Seats, Count: r.Vehicle.Count},
		Price:             r.Price,
		Purpose:           estimate.Purpose(strings.ToUpper(strings.TrimSpace(r.Purpose))),
		Requests:          r.Requests,
		DriverAccompanied: r.AccompaniedByDriver,
	}
	if owner != "" {
		id := types.ID(owner)
		cmd.OwnerID = &id
	}
	kind, ok := pricing.ParseTripKind(r.TripKind)
	if !ok {
		errs.Add("trip_kind", "must be one of ROUND_TRIP, ONE_WAY, SHUTTLE")
	}
	cmd.TripKind = kind
	if r.Stopover != nil {
		s := estimate.Address(*r.Stopover)
		cmd.Stopover = &s
	}

	dep, err := time.Parse(estimate.DateTimeLayout, strings.TrimSpace(r.DepartureAt))
	if err != nil {
		errs.Add("departure_at", "must be formatted as "+estimate.DateTimeLayout)
	}
	cmd.DepartureAt = dep
	if strings.TrimSpace(r.ReturnAt) != "" {
		ret, err := time.Parse(estimate.DateTimeLayout, strings.TrimSpace(r.ReturnAt))
		if err != nil {
			errs.Add("return_at", "must be formatted as "+estimate.DateTimeLayout)
		} else {
			cmd.ReturnAt = &ret
		}
	}

	if strings.TrimSpace(r.PassengerCount) != "" {
		pc, ok := pricing.ParsePassengerCount(r.PassengerCount)
		if !ok {
			errs.Add("passenger_count", "must be a positive number or undetermined")
		} else if n, determinate := pc.Determinate(); determinate {
			cmd.PassengerCount = &n
		}
	}

	if r.Payment != nil {
		method, ok := estimate.ParsePaymentMethod(r.Payment.Method)
		if !ok {
			method = estimate.PaymentMethod(r.Payment.Method)
		}
		cmd.Payment = &estimate.Payment{Method: method, PayerName: r.Payment.PayerName}
	}
	return cmd, errs.Err()
}

// Create handles POST /api/estimates. The caller may be anonymous.
func (h *EstimateHandler) Create(c *gin.Context) {
	var req createEstimateReq
	if !bindJSON(c, &req) {
		return
	}
	cmd, err := req.command(middleware.CallerUID(c))
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	e, err := h.estimates.Create(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusCreated, "estimate created", gin.H{"estimate_id": e.ID, "status": e.Status})
}

// List handles GET /api/estimates?finished=&page=&limit=.
func (h *EstimateHandler) List(c *gin.Context) {
	var finished *bool
	if raw := c.Query("finished"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeFieldErrors(c, types.FieldErrors{"finished": "must be true or false"})
			return
		}
		finished = &v
	}
	page := pageFromQuery(c)
	items, total, err := h.estimates.List(c.Request.Context(), types.ID(middleware.CallerUID(c)), finished, page)
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	out := make([]estimateDTO, 0, len(items))
	for i := range items {
		out = append(out, toEstimateDTO(&items[i]))
	}
	writePage(c, "estimates", out, page, total)
}

// Get handles GET /api/estimates/:id.
func (h *EstimateHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id", estimateNotFound)
	if !ok {
		return
	}
	e, err := h.estimates.Get(c.Request.Context(), id, types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusOK, "estimate", toEstimateDTO(e))
}

// Delete handles DELETE /api/estimates/:id.
func (h *EstimateHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id", estimateNotFound)
	if !ok {
		return
	}
	if err := h.estimates.Delete(c.Request.Context(), id, types.ID(middleware.CallerUID(c))); err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusOK, "estimate deleted", nil)
}

// Sheet handles GET /api/estimates/:id/sheet.
func (h *EstimateHandler) Sheet(c *gin.Context) {
	id, ok := pathUUID(c, "id", estimateNotFound)
	if !ok {
		return
	}
	pdf, filename, err := h.estimates.Sheet(c.Request.Context(), id, types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

type confirmReq struct {
	EstimateID string `json:"estimate_id"`
	Status     string `json:"status"`
}

// Confirm handles PATCH /api/estimates/confirm, the partner status callback.
// The origin allow-list has already run.
func (h *EstimateHandler) Confirm(c *gin.Context) {
	var req confirmReq
	if !bindJSON(c, &req) {
		return
	}
	errs := types.FieldErrors{}
	id, ok := types.ParseUUID(req.EstimateID)
	if !ok {
		errs.Add("estimate_id", "must be a UUID")
	}
	status, ok := estimate.ParseStatus(req.Status)
	if !ok {
		errs.Add("status", "must be one of UNDER_REVIEW, AWAITING_DEPOSIT, CONFIRMED")
	}
	if err := errs.Err(); err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	err := h.estimates.OverrideStatus(c.Request.Context(), estimate.OverrideCommand{
		ID:     id,
		Status: status,
		Source: estimate.SourcePartnerCallback,
		Caller: middleware.CallerAddr(c),
	})
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusOK, "status updated", gin.H{"estimate_id": id, "status": status})
}
