package user

import (
	"time"

	"github.com/gofrs/uuid"
)

// User is keyed by the opaque OAuth subject. DefaultAddressID and
// DefaultCartID are convenience back-references, not ownership: the rows
// they point at have their own lifecycle.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Role             string     `json:"role"`
	Banned           bool       `json:"banned"`
	DefaultAddressID *uuid.UUID `json:"default_address_id,omitempty"`
	DefaultCartID    *uuid.UUID `json:"default_cart_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
