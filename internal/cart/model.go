package cart

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusOrdered   Status = "ordered"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOrdered, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

const (
	// MinItemQuantity and MaxItemQuantity bound a line item's quantity.
	MinItemQuantity = 1
	MaxItemQuantity = 10

	// shipAfter is how long an ordered cart sits before the periodic sync
	// advances it to shipped. It doubles as the user cancellation window.
	shipAfter = 24 * time.Hour
)

// Cart is both the active shopping cart and, once ordered, the immutable
// order record. Line items may only change while the status is active.
type Cart struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a (cart, product) line item. The pair is the key.
type Item struct {
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DetailedItem is a line item joined with the product fields the cart and
// checkout flows need.
type DetailedItem struct {
	Item
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Discount int     `json:"discount"`
	Stock    int     `json:"stock"`
}

// UnitPrice is the effective per-unit price after the percent discount.
func (d *DetailedItem) UnitPrice() float64 {
	return d.Price * (1 - float64(d.Discount)/100)
}

// DisplayStatus derives the presentation status from the stored one: an
// ordered cart reads as "pending" until the ship window elapses. Stored
// status is never touched here.
func DisplayStatus(c *Cart, now time.Time) string {
	if c.Status == StatusOrdered && now.Sub(c.UpdatedAt) < shipAfter {
		return "pending"
	}
	return c.Status.String()
}

// CancellableBy reports whether an end user may still cancel the order:
// only while the display status is "pending", i.e. within the first
// 24 hours after placement.
func CancellableBy(c *Cart, now time.Time) bool {
	return c.Status == StatusOrdered && now.Sub(c.UpdatedAt) < shipAfter
}

// ShouldShip reports whether the periodic sync must advance the cart from
// ordered to shipped.
func ShouldShip(c *Cart, now time.Time) bool {
	return c.Status == StatusOrdered && now.Sub(c.UpdatedAt) >= shipAfter
}
