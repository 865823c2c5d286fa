package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenStatus is the lifecycle state of a meal pickup token. A token
// leaves active through exactly one of the three terminal states.
type TokenStatus string

const (
	TokenActive    TokenStatus = "active"
	TokenUsed      TokenStatus = "used"
	TokenExpired   TokenStatus = "expired"
	TokenCancelled TokenStatus = "cancelled"
)

// RefundStatus tracks the refund owed for a cancelled token.
type RefundStatus string

const (
	RefundPending     RefundStatus = "pending"
	RefundProcessed   RefundStatus = "processed"
	RefundFailed      RefundStatus = "failed"
	RefundNotRequired RefundStatus = "not_required"
)

const (
	PickupLunch  = "lunch"
	PickupSnacks = "snacks"
)

// Token is a claim on a prepared meal, redeemable at the vendor counter
// until the pickup cutoff on the day it was issued.
type Token struct {
	ID           int64            `json:"id"`
	TokenNumber  string           `json:"token_number"`
	UserID       int64            `json:"user_id"`
	MealID       int64            `json:"meal_id"`
	Quantity     int              `json:"quantity"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	PickupTime   string           `json:"pickup_time"`
	Status       TokenStatus      `json:"status"`
	QRPayload    string           `json:"qr_payload,omitempty"`
	ExpiresAt    time.Time        `json:"expires_at"`
	UsedAt       *time.Time       `json:"used_at,omitempty"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
	CancelReason string           `json:"cancel_reason,omitempty"`
	RefundStatus RefundStatus     `json:"refund_status"`
	RefundAmount *decimal.Decimal `json:"refund_amount,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
