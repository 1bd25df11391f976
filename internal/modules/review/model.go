// README: Trip reviews with star ratings and images.
package review

import (
	"io"
	"time"

	"charter/internal/types"
)

const (
	MinStars  = 1
	MaxStars  = 5
	MaxImages = 5
)

type Review struct {
	ID         types.ID
	EstimateID types.ID
	UserID     types.ID
	Stars      int
	Content    string
	Images     []string
	CreatedAt  time.Time
}

// Upload is one image attached to a new review.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
