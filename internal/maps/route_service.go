// README: Driving distance lookup between pre-resolved coordinates (Google Maps Directions).
package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"charter/internal/types"
)

// Route is the driving route through every requested point.
type Route struct {
	DistanceKm int
	Duration   time.Duration
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps.NewRouteService: %w", err)
	}
	return &RouteService{client: client}, nil
}

// DrivingDistance routes origin -> via... -> destination. Points are
// "lat,lng" strings; nothing is geocoded.
func (s *RouteService) DrivingDistance(ctx context.Context, origin, destination string, via ...string) (Route, error) {
	routes, _, err := s.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Waypoints:   via,
		Mode:        maps.TravelModeDriving,
		Language:    "ko",
	})
	if err != nil {
		return Route{}, fmt.Errorf("maps.RouteService.DrivingDistance: %w", err)
	}
	if len(routes) == 0 {
		return Route{}, fmt.Errorf("maps.RouteService.DrivingDistance: no route: %w", types.ErrNotFound)
	}
	return summarize(routes[0].Legs), nil
}

// summarize adds up the legs and rounds the distance up to whole kilometres,
// the unit the tariff is priced in.
func summarize(legs []*maps.Leg) Route {
	var (
		meters int
		r      Route
	)
	for _, leg := range legs {
		if leg == nil {
			continue
		}
		meters += leg.Meters
		r.Duration += leg.Duration
	}
	r.DistanceKm = (meters + 999) / 1000
	return r
}
