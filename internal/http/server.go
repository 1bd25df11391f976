// README: API gateway; holds handler dependencies and the middleware settings.
package http

import (
	"log/slog"
	"net/netip"

	"charter/internal/http/handlers"
	"charter/internal/infra"
)

type ServerDeps struct {
	Pricing       handlers.PricingService
	Estimates     handlers.EstimateService
	Admin         handlers.EstimateAdminService
	Reviews       handlers.ReviewService
	Notices       handlers.NoticeService
	Notifications handlers.NotificationService
	Verification  handlers.VerificationService
	// Routes is optional; the distance lookup is not mounted without it.
	Routes   handlers.RouteService
	Verifier infra.TokenVerifier

	// CallbackAllow gates the partner callback and admin corrections.
	CallbackAllow  []netip.Prefix
	CORSOrigins    []string
	TrustedProxies []string
	Logger         *slog.Logger
}

type Server struct {
	pricing       *handlers.PricingHandler
	estimates     *handlers.EstimateHandler
	admin         *handlers.AdminHandler
	reviews       *handlers.ReviewHandler
	notices       *handlers.NoticeHandler
	notifications *handlers.NotificationHandler
	verification  *handlers.VerificationHandler
	routes        *handlers.RouteHandler
	verifier      infra.TokenVerifier

	callbackAllow  []netip.Prefix
	corsOrigins    []string
	trustedProxies []string
	logger         *slog.Logger
}

func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pricing:        handlers.NewPricingHandler(deps.Pricing),
		estimates:      handlers.NewEstimateHandler(deps.Estimates),
		admin:          handlers.NewAdminHandler(deps.Admin),
		reviews:        handlers.NewReviewHandler(deps.Reviews),
		notices:        handlers.NewNoticeHandler(deps.Notices),
		notifications:  handlers.NewNotificationHandler(deps.Notifications),
		verification:   handlers.NewVerificationHandler(deps.Verification),
		verifier:       deps.Verifier,
		callbackAllow:  deps.CallbackAllow,
		corsOrigins:    deps.CORSOrigins,
		trustedProxies: deps.TrustedProxies,
		logger:         logger,
	}
	if deps.Routes != nil {
		s.routes = handlers.NewRouteHandler(deps.Routes)
	}
	return s
}
