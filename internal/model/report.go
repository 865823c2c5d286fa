package model

import "github.com/shopspring/decimal"

// UserStats summarizes one user's wallet and ordering activity.
type UserStats struct {
	UserID         int64           `json:"user_id"`
	Name           string          `json:"name"`
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	ActiveTokens   int             `json:"active_tokens"`
	UsedTokens     int             `json:"used_tokens"`
	EventsJoined   int             `json:"events_joined"`
}

// CategorySpend is one meal category's share of a user's orders.
type CategorySpend struct {
	Category string          `json:"category"`
	Orders   int             `json:"orders"`
	Total    decimal.Decimal `json:"total"`
}

// DailyTotal is the order volume for a single day.
type DailyTotal struct {
	Day    string          `json:"day"`
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

// MealSales is one meal's sales line within a vendor summary.
type MealSales struct {
	MealID   int64           `json:"meal_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// VendorSummary aggregates a vendor's token sales.
type VendorSummary struct {
	VendorID       int64           `json:"vendor_id"`
	BusinessName   string          `json:"business_name"`
	TokensIssued   int             `json:"tokens_issued"`
	TokensRedeemed int             `json:"tokens_redeemed"`
	Revenue        decimal.Decimal `json:"revenue"`
	TopMeals       []MealSales     `json:"top_meals"`
}
