// README: Review endpoints (multipart create, public list).
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"charter/internal/http/middleware"
	"charter/internal/modules/review"
	"charter/internal/types"
)

type ReviewService interface {
	Create(ctx context.Context, cmd review.CreateCommand) (*review.Review, error)
	List(ctx context.Context, page types.Page) ([]review.Review, int, error)
}

type ReviewHandler struct {
	reviews ReviewService
}

func NewReviewHandler(svc ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: svc}
}

type reviewDTO struct {
	ID         string    `json:"id"`
	EstimateID string    `json:"estimate_id"`
	UserID     string    `json:"user_id"`
	Stars      int       `json:"stars"`
	Content    string    `json:"content"`
	Images     []string  `json:"images"`
	CreatedAt  time.Time `json:"created_at"`
}

func toReviewDTO(r *review.Review) reviewDTO {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return reviewDTO{
		ID:         r.ID.String(),
		EstimateID: r.EstimateID.String(),
		UserID:     r.UserID.String(),
		Stars:      r.Stars,
		Content:    r.Content,
		Images:     images,
		CreatedAt:  r.CreatedAt,
	}
}

// Create handles POST /api/estimates/review as multipart/form-data with
// fields estimate_id, stars, content and zero or more images.
func (h *ReviewHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid multipart form")
		return
	}
	errs := types.FieldErrors{}
	estimateID, ok := types.ParseUUID(c.PostForm("estimate_id"))
	if !ok {
		errs.Add("estimate_id", "must be a UUID")
	}
	stars, err := strconv.Atoi(c.PostForm("stars"))
	if err != nil {
		errs.Add("stars", "must be a number")
	}
	if err := errs.Err(); err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}

	files := form.File["images"]
	uploads := make([]review.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(c, http.StatusBadRequest, "unreadable image")
			return
		}
		defer f.Close()
		uploads = append(uploads, review.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	r, err := h.reviews.Create(c.Request.Context(), review.CreateCommand{
		UserID:     types.ID(middleware.CallerUID(c)),
		EstimateID: estimateID,
		Stars:      stars,
		Content:    c.PostForm("content"),
		Images:     uploads,
	})
	if err != nil {
		writeServiceError(c, err, estimateNotFound)
		return
	}
	writeOK(c, http.StatusCreated, "review created", toReviewDTO(r))
}

// List handles GET /api/estimates/reviews.
func (h *ReviewHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	items, total, err := h.reviews.List(c.Request.Context(), page)
	if err != nil {
		writeServiceError(c, err, "review not found")
		return
	}
	out := make([]reviewDTO, 0, len(items))
	for i := range items {
		out = append(out, toReviewDTO(&items[i]))
	}
	writePage(c, "reviews", out, page, total)
}
