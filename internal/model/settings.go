package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the single school-wide configuration row.
// MaxDailySpendLimit is the default daily limit applied to new student
// wallets; zero means unlimited.
type Settings struct {
	SchoolName              string          `json:"school_name"`
	ContactEmail            string          `json:"contact_email"`
	ContactPhone            string          `json:"contact_phone"`
	AllowParentRegistration bool            `json:"allow_parent_registration"`
	AllowVendorRegistration bool            `json:"allow_vendor_registration"`
	MaxDailySpendLimit      decimal.Decimal `json:"max_daily_spend_limit"`
	UpdatedAt               time.Time       `json:"updated_at"`
}
