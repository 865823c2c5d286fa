// Package token holds the pure parts of the meal-token lifecycle: number
// formatting, pickup cutoffs, and the scannable payload. State transitions
// live in the store, which persists them.
package token

import (
	"encoding/base64"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const numberPrefix = "TOK"

// Lunch tokens expire at 13:00, snack tokens at 16:00, on the issue day.
const (
	lunchCutoffHour  = 13
	snacksCutoffHour = 16
)

// FormatNumber builds a token number of the form TOK-YYMMDD-NNN from the
// issue day and the day's sequence number.
func FormatNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", numberPrefix, day.Format("060102"), seq)
}

// ExpiryFor returns the pickup cutoff for a token issued at issuedAt:
// 13:00 for lunch, 16:00 for snacks, same calendar day.
func ExpiryFor(pickupTime string, issuedAt time.Time) time.Time {
	hour := snacksCutoffHour
	if pickupTime == "lunch" {
		hour = lunchCutoffHour
	}
	return time.Date(issuedAt.Year(), issuedAt.Month(), issuedAt.Day(), hour, 0, 0, 0, issuedAt.Location())
}

// IsExpired reports whether a token with the given cutoff has lapsed.
func IsExpired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}

// ValidPickupTime reports whether s names a pickup slot.
func ValidPickupTime(s string) bool {
	return s == "lunch" || s == "snacks"
}

// QRPayload encodes the token number as a PNG data URL suitable for
// rendering at the pickup counter. Token validity never depends on the
// payload contents, only on the number's uniqueness.
func QRPayload(tokenNumber string) (string, error) {
	png, err := qrcode.Encode(tokenNumber, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
