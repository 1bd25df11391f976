package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"charter/internal/http/middleware"
)

func originRouter(allow []netip.Prefix) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(middleware.AllowOrigins(allow))
	r.PATCH("/cb", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.CallerAddr(c))
	})
	return r
}

func TestAllowOrigins(t *testing.T) {
	allow := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("203.0.113.7/32"),
	}
	tests := []struct {
		name   string
		remote string
		want   int
	}{
		{"inside cidr", "10.1.2.3:5000", http.StatusOK},
		{"exact host", "203.0.113.7:443", http.StatusOK},
		{"outside", "198.51.100.1:443", http.StatusForbidden},
		{"ipv4 mapped", "[::ffff:10.0.0.9]:80", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/cb", nil)
			req.RemoteAddr = tt.remote
			w := httptest.NewRecorder()
			originRouter(allow).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAllowOrigins_IgnoresForwardedHeaderFromUntrustedPeer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/cb", nil)
	req.RemoteAddr = "198.51.100.1:443"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	w := httptest.NewRecorder()
	originRouter([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAllowOrigins_EmptyListRejects(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/cb", nil)
	req.RemoteAddr = "127.0.0.1:1"
	w := httptest.NewRecorder()
	originRouter(nil).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
