// README: Device-token registration and the in-app notification inbox.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"charter/internal/http/middleware"
	"charter/internal/modules/notification"
	"charter/internal/types"
)

const notificationNotFound = "notification not found"

type NotificationService interface {
	RegisterToken(ctx context.Context, userID types.ID, token string) error
	List(ctx context.Context, userID types.ID, page types.Page) ([]notification.Record, int, error)
	MarkRead(ctx context.Context, userID types.ID, id int64) error
	Send(ctx context.Context, userID types.ID, title, body string) (bool, error)
}

type NotificationHandler struct {
	notifications NotificationService
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: svc}
}

type registerTokenReq struct {
	FCMToken string `json:"fcm_token"`
}

// RegisterToken handles POST /api/fcm/register-token.
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req registerTokenReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.notifications.RegisterToken(c.Request.Context(), types.ID(middleware.CallerUID(c)), req.FCMToken); err != nil {
		writeServiceError(c, err, notificationNotFound)
		return
	}
	writeOK(c, http.StatusOK, "token registered", nil)
}

type notificationDTO struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	items, total, err := h.notifications.List(c.Request.Context(), types.ID(middleware.CallerUID(c)), page)
	if err != nil {
		writeServiceError(c, err, notificationNotFound)
		return
	}
	out := make([]notificationDTO, 0, len(items))
	for _, r := range items {
		out = append(out, notificationDTO{
			ID:        r.ID,
			Title:     r.Title,
			Body:      r.Body,
			Kind:      r.Kind,
			IsRead:    r.IsRead,
			CreatedAt: r.CreatedAt,
		})
	}
	writePage(c, "notifications", out, page, total)
}

// MarkRead handles PATCH /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusNotFound, notificationNotFound)
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), types.ID(middleware.CallerUID(c)), id); err != nil {
		writeServiceError(c, err, notificationNotFound)
		return
	}
	writeOK(c, http.StatusOK, "notification read", nil)
}

type sendNotificationReq struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Send handles POST /api/admin/notifications.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req sendNotificationReq
	if !bindJSON(c, &req) {
		return
	}
	pushed, err := h.notifications.Send(c.Request.Context(), types.ID(req.UserID), req.Title, req.Body)
	if err != nil {
		writeServiceError(c, err, notificationNotFound)
		return
	}
	writeOK(c, http.StatusOK, "notification sent", gin.H{"pushed": pushed})
}
