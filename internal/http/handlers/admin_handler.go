// README: Admin endpoints: estimate corrections, checked transitions, on-demand sweeps.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"charter/internal/http/middleware"
	"charter/internal/modules/estimate"
	"charter/internal/modules/pricing"
	"charter/internal/types"
)

type EstimateAdminService interface {
	GetAny(ctx context.Context, id types.ID) (*estimate.Estimate, error)
	UpdateAdministrative(ctx context.Context, id types.ID, upd estimate.AdminUpdate, caller string) (*estimate.Estimate, error)
	Transition(ctx context.Context, id types.ID, to estimate.Status, actor string) (*estimate.Estimate, error)
	RunFinishSweep(ctx context.Context, today time.Time) (estimate.SweepResult, error)
	RunDepositReminderSweep(ctx context.Context) (estimate.SweepResult, error)
	Today() time.Time
}

type AdminHandler struct {
	estimates EstimateAdminService
}

func NewAdminHandler(svc EstimateAdminService) *AdminHandler {
	return &AdminHandler{estimates: svc}
}

// Get handles GET /api/admin/estimates/:id. Ownership is not checked.
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id", estimateNotFound)
	if !ok {
		return
	}
	e, err := h.estimates.GetAny(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusOK, "estimate", toEstimateDTO(e))
}

type adminUpdateReq struct {
	VehicleClass *string `json:"vehicle_class"`
	VehicleCount *int    `json:"vehicle_count"`
	Price        *int64  `json:"price"`
	Status       *string `json:"status"`
}

// Update handles PATCH /api/admin/estimates/:id.
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id", estimateNotFound)
	if !ok {
		return
	}
	var req adminUpdateReq
	if !bindJSON(c, &req) {
		return
	}
	upd := estimate.AdminUpdate{VehicleCount: req.VehicleCount, Price: req.Price}
	if req.VehicleClass != nil {
		vc := pricing.VehicleClass(strings.ToLower(strings.TrimSpace(*req.VehicleClass)))
		upd.VehicleClass = &vc
	}
	if req.Status != nil {
		st, ok := estimate.ParseStatus(*req.Status)
		if !ok {
			writeFieldErrors(c, types.FieldErrors{"status": "must be one of UNDER_REVIEW, AWAITING_DEPOSIT, CONFIRMED"})
			return
		}
		upd.Status = &st
	}
	e, err := h.estimates.UpdateAdministrative(c.Request.Context(), id, upd, adminCaller(c))
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusOK, "estimate updated", toEstimateDTO(e))
}

type transitionReq struct {
	Status string `json:"status"`
}

// Transition handles POST /api/admin/estimates/:id/transition.
func (h *AdminHandler) Transition(c *gin.Context) {
	id, ok := pathUUID(c, "id", estimateNotFound)
	if !ok {
		return
	}
	var req transitionReq
	if !bindJSON(c, &req) {
		return
	}
	to, ok := estimate.ParseStatus(req.Status)
	if !ok {
		writeFieldErrors(c, types.FieldErrors{"status": "must be one of UNDER_REVIEW, AWAITING_DEPOSIT, CONFIRMED"})
		return
	}
	e, err := h.estimates.Transition(c.Request.Context(), id, to, middleware.CallerUID(c))
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusOK, "estimate transitioned", toEstimateDTO(e))
}

// FinishSweep handles POST /api/admin/sweeps/finish?date=YYYY-MM-DD.
// Without a date the sweep runs for today.
func (h *AdminHandler) FinishSweep(c *gin.Context) {
	today := h.estimates.Today()
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(pricing.DateLayout, raw)
		if err != nil {
			writeFieldErrors(c, types.FieldErrors{"date": "must be formatted as " + pricing.DateLayout})
			return
		}
		today = d
	}
	res, err := h.estimates.RunFinishSweep(c.Request.Context(), today)
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusOK, "finish sweep complete", res)
}

// DepositReminderSweep handles POST /api/admin/sweeps/deposit-reminder.
func (h *AdminHandler) DepositReminderSweep(c *gin.Context) {
	res, err := h.estimates.RunDepositReminderSweep(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusOK, "deposit reminder sweep complete", res)
}

// adminCaller names the admin and the address the correction came from.
func adminCaller(c *gin.Context) string {
	uid := middleware.CallerUID(c)
	if addr := middleware.CallerAddr(c); addr != "" {
		return uid + "@" + addr
	}
	return uid
}
