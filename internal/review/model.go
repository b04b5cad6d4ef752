package review

import (
	"time"

	"github.com/gofrs/uuid"
)

type Review struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	UserID       string    `json:"user_id"`
	Rating       int       `json:"rating"` // 1..5
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	HelpfulCount int       `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary holds aggregate review statistics for a product, computed on read.
type Summary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int     `json:"total_count"`
}
