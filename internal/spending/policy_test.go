package spending

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestResetDue(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		lastReset string
		want      bool
	}{
		{"same day", "2025-04-01", false},
		{"previous day", "2025-03-31", true},
		{"many days ago", "2025-01-15", true},
		{"never reset", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResetDue(tt.lastReset, now); got != tt.want {
				t.Errorf("ResetDue(%q) = %v, want %v", tt.lastReset, got, tt.want)
			}
		})
	}
}

func TestDebitAllowed(t *testing.T) {
	tests := []struct {
		name   string
		limit  string
		spent  string
		amount string
		want   bool
	}{
		{"zero limit is unlimited", "0", "9999", "5000", true},
		{"within limit", "100", "40", "60", true},
		{"exactly at limit", "100", "40", "60.00", true},
		{"over limit", "100", "40", "60.01", false},
		{"fresh day full amount", "100", "0", "100", true},
		{"fresh day over", "100", "0", "100.5", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DebitAllowed(d(tt.limit), d(tt.spent), d(tt.amount))
			if got != tt.want {
				t.Errorf("DebitAllowed(%s, %s, %s) = %v, want %v",
					tt.limit, tt.spent, tt.amount, got, tt.want)
			}
		})
	}
}
