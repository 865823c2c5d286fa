package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryBreakfast = "Breakfast"
	CategoryLunch     = "Lunch"
	CategorySnacks    = "Snacks"
	CategoryBeverages = "Beverages"
)

// Meal is a vendor menu item with a finite daily stock. Available is kept
// in lockstep with AvailableQuantity: it flips to false when the quantity
// reaches zero and back to true on restock.
type Meal struct {
	ID                int64           `json:"id"`
	VendorID          int64           `json:"vendor_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Category          string          `json:"category"`
	Vegetarian        bool            `json:"vegetarian"`
	ImageURL          string          `json:"image_url,omitempty"`
	Available         bool            `json:"available"`
	AvailableQuantity int             `json:"available_quantity"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CheckAvailability reports whether the meal can satisfy an order for the
// given quantity.
func (m *Meal) CheckAvailability(quantity int) bool {
	return m.Available && m.AvailableQuantity >= quantity
}

// ValidCategory reports whether s is one of the known meal categories.
func ValidCategory(s string) bool {
	switch s {
	case CategoryBreakfast, CategoryLunch, CategorySnacks, CategoryBeverages:
		return true
	}
	return false
}
