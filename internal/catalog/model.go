package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

// Product is a storefront catalog entry. Stock is adjusted only through the
// ledger methods on Repository; every other field is plain profile data.
type Product struct {
	ID          uuid.UUID `json:"id"`
	SellerID    string    `json:"seller_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Discount    int       `json:"discount"` // percent, 0..100
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	ImageURL    string    `json:"image_url"`
	Colors      []string  `json:"colors"`
	Sizes       []string  `json:"sizes"`
	Tags        []string  `json:"tags"`
	About       []string  `json:"about"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DiscountedPrice is the effective unit price after the percent discount.
func (p *Product) DiscountedPrice() float64 {
	return p.Price * (1 - float64(p.Discount)/100)
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}
