// README: Notice board endpoints.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"charter/internal/modules/notice"
	"charter/internal/types"
)

type NoticeService interface {
	Create(ctx context.Context, cmd notice.CreateCommand) (*notice.Notice, error)
	List(ctx context.Context, page types.Page) ([]notice.Notice, int, error)
}

type NoticeHandler struct {
	notices NoticeService
}

func NewNoticeHandler(svc NoticeService) *NoticeHandler {
	return &NoticeHandler{notices: svc}
}

type noticeDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toNoticeDTO(n *notice.Notice) noticeDTO {
	return noticeDTO{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Detail:    n.Detail,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (h *NoticeHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	items, total, err := h.notices.List(c.Request.Context(), page)
	if err != nil {
		writeServiceError(c, err, "notice not found")
		return
	}
	out := make([]noticeDTO, 0, len(items))
	for i := range items {
		out = append(out, toNoticeDTO(&items[i]))
	}
	writePage(c, "notices", out, page, total)
}

type createNoticeReq struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (h *NoticeHandler) Create(c *gin.Context) {
	var req createNoticeReq
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.notices.Create(c.Request.Context(), notice.CreateCommand{
		Type:   req.Type,
		Title:  req.Title,
		Detail: req.Detail,
	})
	if err != nil {
		writeServiceError(c, err, "notice not found")
		return
	}
	writeOK(c, http.StatusCreated, "notice created", toNoticeDTO(n))
}
