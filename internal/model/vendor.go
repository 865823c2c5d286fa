package model

import "time"

// Vendor is the canteen-counter profile attached to a user with the
// vendor role.
type Vendor struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	BusinessName  string    `json:"business_name"`
	CounterNumber string    `json:"counter_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
