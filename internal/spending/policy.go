// Package spending implements the daily spending-limit policy consulted
// before every wallet debit. Everything here is a pure function of stored
// state and the current time; callers apply the resulting mutations.
package spending

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateKey formats a time as the calendar-day key stored in
// wallets.last_reset_date.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ResetDue reports whether the daily-spent counter must be reset before
// the current operation: true whenever lastResetDate does not match the
// calendar day of now. Days elapsed in between do not matter.
func ResetDue(lastResetDate string, now time.Time) bool {
	return lastResetDate != DateKey(now)
}

// DebitAllowed reports whether a debit of amount is permitted given the
// wallet's daily limit and the amount already spent today. A zero limit
// means unlimited. The caller must have applied any due daily reset to
// spentToday first.
func DebitAllowed(limit, spentToday, amount decimal.Decimal) bool {
	if limit.IsZero() {
		return true
	}
	return spentToday.Add(amount).LessThanOrEqual(limit)
}
