// README: Phone verification code endpoints.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type VerificationService interface {
	SendCode(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) error
}

type VerificationHandler struct {
	verification VerificationService
}

func NewVerificationHandler(svc VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: svc}
}

type sendCodeReq struct {
	Phone string `json:"phone"`
}

type verifyCodeReq struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// SendCode handles POST /api/users/codes.
func (h *VerificationHandler) SendCode(c *gin.Context) {
	var req sendCodeReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.verification.SendCode(c.Request.Context(), req.Phone); err != nil {
		writeServiceError(c, err, "")
		return
	}
	writeOK(c, http.StatusOK, "verification code sent", nil)
}

// Verify handles POST /api/users/codes/verify.
func (h *VerificationHandler) Verify(c *gin.Context) {
	var req verifyCodeReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.verification.Verify(c.Request.Context(), req.Phone, req.Code); err != nil {
		writeServiceError(c, err, "")
		return
	}
	writeOK(c, http.StatusOK, "phone verified", gin.H{"verified": true})
}
