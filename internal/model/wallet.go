package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money flowing into a wallet from money
// flowing out.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// TransactionStatus tracks settlement of a ledger entry. Entries are
// immutable once appended; only the status may move pending → completed
// or pending → failed.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Wallet is the per-user ledger record. DailySpent is lazily reset the
// first time the wallet is touched on a new calendar day; LastResetDate
// records the day (YYYY-MM-DD) of the last reset. A DailyLimit of zero
// means unlimited.
type Wallet struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Balance       decimal.Decimal `json:"balance"`
	DailyLimit    decimal.Decimal `json:"daily_limit"`
	DailySpent    decimal.Decimal `json:"daily_spent"`
	LastResetDate string          `json:"last_reset_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Transaction is one append-only ledger entry.
type Transaction struct {
	ID          int64             `json:"id"`
	WalletID    int64             `json:"wallet_id"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Reference   string            `json:"reference"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}
