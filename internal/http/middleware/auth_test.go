// README: Tests for Firebase auth middleware and role checks.
package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charter/internal/http/middleware"
	"charter/internal/infra"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	token *infra.FirebaseToken
	err   error
	calls int
}

var _ infra.TokenVerifier = (*stubVerifier)(nil)

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	s.calls++
	return s.token, s.err
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": middleware.CallerUID(c), "role": middleware.CallerRole(c)})
	})
	return r
}

func get(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuth_MissingHeader(t *testing.T) {
	v := &stubVerifier{token: &infra.FirebaseToken{UID: "user1"}}
	w := get(newTestRouter(middleware.Auth(v)), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["result"])
	assert.Zero(t, v.calls)
}

func TestAuth_InvalidBearerPrefix(t *testing.T) {
	v := &stubVerifier{token: &infra.FirebaseToken{UID: "user1"}}
	w := get(newTestRouter(middleware.Auth(v)), "Token sometoken")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_VerifierError(t *testing.T) {
	w := get(newTestRouter(middleware.Auth(&stubVerifier{err: errors.New("bad token")})), "Bearer invalid")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidToken_UIDAndRolePopulated(t *testing.T) {
	v := &stubVerifier{token: &infra.FirebaseToken{UID: "admin1", Claims: map[string]interface{}{"role": "admin"}}}
	w := get(newTestRouter(middleware.Auth(v)), "Bearer valid")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "admin1", body["uid"])
	assert.Equal(t, "admin", body["role"])
}

func TestAuth_ValidToken_NoRoleClaim(t *testing.T) {
	v := &stubVerifier{token: &infra.FirebaseToken{UID: "user2", Claims: map[string]interface{}{}}}
	w := get(newTestRouter(middleware.Auth(v)), "Bearer valid")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "user2", body["uid"])
	assert.Equal(t, "", body["role"])
}

func TestOptionalAuth(t *testing.T) {
	t.Run("anonymous passes", func(t *testing.T) {
		v := &stubVerifier{err: errors.New("unused")}
		w := get(newTestRouter(middleware.OptionalAuth(v)), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "", decode(t, w)["uid"])
		assert.Zero(t, v.calls)
	})
	t.Run("bad token rejected", func(t *testing.T) {
		w := get(newTestRouter(middleware.OptionalAuth(&stubVerifier{err: errors.New("bad")})), "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
	t.Run("good token identifies", func(t *testing.T) {
		v := &stubVerifier{token: &infra.FirebaseToken{UID: "user3"}}
		w := get(newTestRouter(middleware.OptionalAuth(v)), "Bearer ok")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user3", decode(t, w)["uid"])
	})
}

func TestRequireRole(t *testing.T) {
	user := &stubVerifier{token: &infra.FirebaseToken{UID: "u", Claims: map[string]interface{}{}}}
	w := get(newTestRouter(middleware.Auth(user), middleware.RequireRole(middleware.RoleAdmin)), "Bearer t")
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := &stubVerifier{token: &infra.FirebaseToken{UID: "a", Claims: map[string]interface{}{"role": "admin"}}}
	w = get(newTestRouter(middleware.Auth(admin), middleware.RequireRole(middleware.RoleAdmin)), "Bearer t")
	assert.Equal(t, http.StatusOK, w.Code)
}
