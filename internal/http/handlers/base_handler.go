// README: Base handler utilities (response envelope, error mapping, paging).
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"charter/internal/modules/verification"
	"charter/internal/types"
)

// envelope is the body of every JSON response.
type envelope struct {
	Result  bool              `json:"result"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type pageDTO struct {
	Items   any  `json:"items"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

func writeOK(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, envelope{Result: true, Message: msg, Data: data})
}

func writePage(c *gin.Context, msg string, items any, page types.Page, total int) {
	writeOK(c, http.StatusOK, msg, pageDTO{
		Items:   items,
		Page:    page.Number,
		Limit:   page.Limit,
		Total:   total,
		HasNext: page.HasNext(total),
	})
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Result: false, Message: msg})
}

func writeFieldErrors(c *gin.Context, fe types.FieldErrors) {
	c.JSON(http.StatusBadRequest, envelope{Result: false, Message: "invalid request", Errors: fe})
}

// writeServiceError maps a service error onto a status code. notFound is the
// message used for 404s so that missing and foreign records look the same.
func writeServiceError(c *gin.Context, err error, notFound string) {
	if fe, ok := types.Fields(err); ok {
		writeFieldErrors(c, fe)
		return
	}
	switch {
	case errors.Is(err, types.ErrValidation):
		writeError(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, types.ErrNotFound):
		writeError(c, http.StatusNotFound, notFound)
	case errors.Is(err, types.ErrForbiddenOrigin):
		writeError(c, http.StatusForbidden, "origin not allowed")
	case errors.Is(err, types.ErrInvalidState):
		writeError(c, http.StatusConflict, "status change not allowed")
	case errors.Is(err, types.ErrConflict):
		writeError(c, http.StatusConflict, "conflict")
	case errors.Is(err, verification.ErrRateLimited):
		writeError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, verification.ErrCodeMismatch), errors.Is(err, verification.ErrCodeExpired):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("route", c.FullPath()),
			slog.Any("error", err),
		)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// bindJSON decodes the body or writes a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// pathUUID reads a UUID path parameter. Malformed ids are reported as not
// found, like any other unknown id.
func pathUUID(c *gin.Context, name, notFound string) (types.ID, bool) {
	id, ok := types.ParseUUID(c.Param(name))
	if !ok {
		writeError(c, http.StatusNotFound, notFound)
		return "", false
	}
	return id, true
}

func pageFromQuery(c *gin.Context) types.Page {
	n, _ := strconv.Atoi(c.Query("page"))
	l, _ := strconv.Atoi(c.Query("limit"))
	return types.NewPage(n, l)
}
