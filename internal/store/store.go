// Package store implements persistence for all campuspay aggregates over
// SQLite. Each aggregate gets its own XStore type; multi-record flows
// (meal orders, event registration) run inside a single database
// transaction so a guard check and the mutation it authorizes are
// indivisible.
package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// querier is satisfied by both *sql.DB and *sql.Tx, letting the wallet
// mutation helpers participate in a caller's transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
