// README: Network allow-list for partner callbacks.
package middleware

import (
	"net/http"
	"net/netip"

	"github.com/gin-gonic/gin"

	"charter/internal/types"
)

const ctxCallerAddr = "caller_addr"

// AllowOrigins rejects requests whose client address is outside allow.
// An empty list rejects everything. The client address follows gin's
// trusted-proxy rules.
func AllowOrigins(allow []netip.Prefix) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr, err := netip.ParseAddr(c.ClientIP())
		if err != nil || !contains(allow, addr.Unmap()) {
			abort(c, http.StatusForbidden, types.ErrForbiddenOrigin.Error())
			return
		}
		c.Set(ctxCallerAddr, addr.Unmap().String())
		c.Next()
	}
}

// CallerAddr is the allow-listed address that passed AllowOrigins.
func CallerAddr(c *gin.Context) string { return c.GetString(ctxCallerAddr) }

func contains(allow []netip.Prefix, addr netip.Addr) bool {
	for _, p := range allow {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
