// README: Approximate-price endpoint over the pricing engine.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"charter/internal/modules/pricing"
)

type PricingService interface {
	Quote(ctx context.Context, req pricing.TripRequest) (pricing.PriceQuote, error)
}

type PricingHandler struct {
	pricing PricingService
}

func NewPricingHandler(svc PricingService) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type priceOptionDTO struct {
	Price        string `json:"price"`
	VehicleClass string `json:"vehicle_class"`
}

type approximatePriceDTO struct {
	RecommendedSeatClass    string           `json:"recommended_seat_class"`
	RecommendedVehicleCount string           `json:"recommended_vehicle_count"`
	PriceList               []priceOptionDTO `json:"price_list"`
}

// Approximate handles POST /api/estimates/approximate-price.
func (h *PricingHandler) Approximate(c *gin.Context) {
	var in pricing.QuoteInput
	if !bindJSON(c, &in) {
		return
	}
	req, err := pricing.ParseTripRequest(in)
	if err != nil {
		writeServiceError(c, err, "")
		return
	}
	q, err := h.pricing.Quote(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "")
		return
	}

	out := approximatePriceDTO{
		RecommendedSeatClass:    q.SeatClass,
		RecommendedVehicleCount: strconv.Itoa(q.VehicleCount),
	}
	for _, opt := range q.PriceList() {
		out.PriceList = append(out.PriceList, priceOptionDTO{
			Price:        strconv.FormatInt(opt.Price, 10),
			VehicleClass: string(opt.Class),
		})
	}
	writeOK(c, http.StatusOK, "price calculated", out)
}
