package address

import (
	"time"

	"github.com/gofrs/uuid"
)

type Type string

const (
	TypeHome   Type = "home"
	TypeOffice Type = "office"
)

func (t Type) Valid() bool {
	return t == TypeHome || t == TypeOffice
}

type Address struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	Type       Type      `json:"address_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	FullName   *string `json:"full_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Line1      *string `json:"line1,omitempty"`
	Line2      *string `json:"line2,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    *string `json:"country,omitempty"`
	Type       *Type   `json:"address_type,omitempty"`
}

func (p Patch) Empty() bool {
	return p.FullName == nil && p.Phone == nil && p.Line1 == nil && p.Line2 == nil &&
		p.City == nil && p.State == nil && p.PostalCode == nil && p.Country == nil && p.Type == nil
}

// Apply copies the non-nil patch fields onto the address.
func (p Patch) Apply(a *Address) {
	if p.FullName != nil {
		a.FullName = *p.FullName
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.Line1 != nil {
		a.Line1 = *p.Line1
	}
	if p.Line2 != nil {
		a.Line2 = *p.Line2
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	if p.Country != nil {
		a.Country = *p.Country
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
}
