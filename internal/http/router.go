// README: HTTP router registration.
package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"charter/internal/http/middleware"
)

const maxMultipartMemory = 16 << 20

func (s *Server) Routes() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(s.trustedProxies); err != nil {
		return nil, fmt.Errorf("http.Server.Routes: trusted proxies: %w", err)
	}
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.Recovery(s.logger),
		middleware.CORS(s.corsOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"result": true, "message": "ok"})
	})

	auth := middleware.Auth(s.verifier)
	partnerOnly := middleware.AllowOrigins(s.callbackAllow)
	api := r.Group("/api")

	api.POST("/estimates/approximate-price", s.pricing.Approximate)
	if s.routes != nil {
		api.POST("/estimates/route-distance", s.routes.Distance)
	}
	api.POST("/estimates", middleware.OptionalAuth(s.verifier), s.estimates.Create)
	api.GET("/estimates", auth, s.estimates.List)
	api.PATCH("/estimates/confirm", partnerOnly, s.estimates.Confirm)
	api.GET("/estimates/reviews", s.reviews.List)
	api.POST("/estimates/review", auth, s.reviews.Create)
	api.GET("/estimates/:id", auth, s.estimates.Get)
	api.DELETE("/estimates/:id", auth, s.estimates.Delete)
	api.GET("/estimates/:id/sheet", auth, s.estimates.Sheet)

	api.GET("/notices", s.notices.List)

	api.POST("/fcm/register-token", auth, s.notifications.RegisterToken)
	api.GET("/notifications", auth, s.notifications.List)
	api.PATCH("/notifications/:id/read", auth, s.notifications.MarkRead)

	api.POST("/users/codes", s.verification.SendCode)
	api.POST("/users/codes/verify", s.verification.Verify)

	admin := api.Group("/admin", auth, middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("/estimates/:id", s.admin.Get)
	admin.PATCH("/estimates/:id", partnerOnly, s.admin.Update)
	admin.POST("/estimates/:id/transition", s.admin.Transition)
	admin.POST("/sweeps/finish", s.admin.FinishSweep)
	admin.POST("/sweeps/deposit-reminder", s.admin.DepositReminderSweep)
	admin.POST("/notices", s.notices.Create)
	admin.POST("/notifications", s.notifications.Send)

	return r, nil
}
