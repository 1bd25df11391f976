package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charter/internal/http/handlers"
	"charter/internal/modules/review"
	"charter/internal/types"
)

func reviewRouter(m *mockReviews) *gin.Engine {
	r := newEngine()
	h := handlers.NewReviewHandler(m)
	r.POST("/api/estimates/review", authed(), h.Create)
	r.GET("/api/estimates/reviews", h.List)
	return r
}

type formImage struct {
	name, contentType, body string
}

func multipartRequest(t *testing.T, fields map[string]string, images []formImage) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, img := range images {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+img.name+`"`)
		h.Set("Content-Type", img.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(img.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/estimates/review", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+userToken)
	return req
}

func TestReviewCreate_PassesUploads(t *testing.T) {
	var (
		got    review.CreateCommand
		bodies []string
	)
	m := &mockReviews{create: func(_ context.Context, cmd review.CreateCommand) (*review.Review, error) {
		got = cmd
		for _, img := range cmd.Images {
			b, err := io.ReadAll(img.Body)
			require.NoError(t, err)
			bodies = append(bodies, string(b))
		}
		return &review.Review{
			ID:         types.NewID(),
			EstimateID: cmd.EstimateID,
			UserID:     cmd.UserID,
			Stars:      cmd.Stars,
			Content:    cmd.Content,
			Images:     []string{"https://storage.example/reviews/1/0.png"},
			CreatedAt:  time.Now(),
		}, nil
	}}
	req := multipartRequest(t, map[string]string{
		"estimate_id": "0b6c3f52-8c7e-4a35-9a53-2f9d1c3b7a10",
		"stars":       "5",
		"content":     "Great driver",
	}, []formImage{{name: "bus.png", contentType: "image/png", body: "png-bytes"}})
	w := httptest.NewRecorder()
	reviewRouter(m).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, types.ID(userUID), got.UserID)
	assert.Equal(t, 5, got.Stars)
	assert.Equal(t, "Great driver", got.Content)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "bus.png", got.Images[0].Filename)
	assert.Equal(t, "image/png", got.Images[0].ContentType)
	assert.Equal(t, []string{"png-bytes"}, bodies)
}

func TestReviewCreate_BadFields(t *testing.T) {
	req := multipartRequest(t, map[string]string{"estimate_id": "x", "stars": "five"}, nil)
	w := httptest.NewRecorder()
	reviewRouter(&mockReviews{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Contains(t, env.Errors, "estimate_id")
	assert.Contains(t, env.Errors, "stars")
}

func TestReviewCreate_Duplicate(t *testing.T) {
	m := &mockReviews{create: func(context.Context, review.CreateCommand) (*review.Review, error) {
		return nil, types.ErrConflict
	}}
	req := multipartRequest(t, map[string]string{"estimate_id": "0b6c3f52-8c7e-4a35-9a53-2f9d1c3b7a10", "stars": "4"}, nil)
	w := httptest.NewRecorder()
	reviewRouter(m).ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReviewList_IsPublic(t *testing.T) {
	m := &mockReviews{list: func(_ context.Context, page types.Page) ([]review.Review, int, error) {
		return []review.Review{{ID: types.NewID(), Stars: 4}}, 1, nil
	}}
	w := do(reviewRouter(m), http.MethodGet, "/api/estimates/reviews", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"images":[]`)
}
