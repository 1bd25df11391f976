// README: Driving distance lookup feeding the approximate-price form.
package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"charter/internal/maps"
	"charter/internal/types"
)

type RouteService interface {
	DrivingDistance(ctx context.Context, origin, destination string, via ...string) (maps.Route, error)
}

type RouteHandler struct {
	routes RouteService
}

func NewRouteHandler(svc RouteService) *RouteHandler {
	return &RouteHandler{routes: svc}
}

type routeDistanceReq struct {
	Departure   addressDTO  `json:"departure"`
	Destination addressDTO  `json:"destination"`
	Stopover    *addressDTO `json:"stopover"`
}

type routeDistanceDTO struct {
	DistanceKm      int `json:"distance_km"`
	DurationMinutes int `json:"duration_minutes"`
}

// Distance handles POST /api/estimates/route-distance.
func (h *RouteHandler) Distance(c *gin.Context) {
	var req routeDistanceReq
	if !bindJSON(c, &req) {
		return
	}
	errs := types.FieldErrors{}
	origin := latLng(errs, "departure", req.Departure)
	destination := latLng(errs, "destination", req.Destination)
	var via []string
	if req.Stopover != nil {
		via = append(via, latLng(errs, "stopover", *req.Stopover))
	}
	if err := errs.Err(); err != nil {
		writeServiceError(c, err, "")
		return
	}

	route, err := h.routes.DrivingDistance(c.Request.Context(), origin, destination, via...)
	if err != nil {
		writeServiceError(c, err, "route not found")
		return
	}
	writeOK(c, http.StatusOK, "route calculated", routeDistanceDTO{
		DistanceKm:      route.DistanceKm,
		DurationMinutes: int(math.Ceil(route.Duration.Minutes())),
	})
}

// latLng renders a "lat,lng" point, recording a field error when either
// coordinate is not a number in range.
func latLng(errs types.FieldErrors, field string, a addressDTO) string {
	lat, err := strconv.ParseFloat(strings.TrimSpace(a.Latitude), 64)
	if err != nil || lat < -90 || lat > 90 {
		errs.Add(field+".latitude", "must be a decimal number between -90 and 90")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(a.Longitude), 64)
	if err != nil || lng < -180 || lng > 180 {
		errs.Add(field+".longitude", "must be a decimal number between -180 and 180")
	}
	return strings.TrimSpace(a.Latitude) + "," + strings.TrimSpace(a.Longitude)
}
