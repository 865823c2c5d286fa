package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ewhitmore/campuspay/internal/model"
	token "github.com/ewhitmore/campuspay/internal/token"
)

type TokenStore struct {
	db *sql.DB
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

const tokenCols = `id, token_number, user_id, meal_id, quantity, total_amount, pickup_time, status, qr_payload,
	expires_at, used_at, cancelled_at, cancel_reason, refund_status, refund_amount, created_at`

func scanToken(scanner interface{ Scan(...any) error }) (*model.Token, error) {
	var t model.Token
	var total string
	var usedAt, cancelledAt sql.NullTime
	var refundAmount sql.NullString

	err := scanner.Scan(&t.ID, &t.TokenNumber, &t.UserID, &t.MealID, &t.Quantity, &total, &t.PickupTime,
		&t.Status, &t.QRPayload, &t.ExpiresAt, &usedAt, &cancelledAt, &t.CancelReason, &t.RefundStatus,
		&refundAmount, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if t.TotalAmount, err = parseDecimal(total); err != nil {
		return nil, err
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	if cancelledAt.Valid {
		t.CancelledAt = &cancelledAt.Time
	}
	if refundAmount.Valid {
		amt, err := parseDecimal(refundAmount.String)
		if err != nil {
			return nil, err
		}
		t.RefundAmount = &amt
	}
	return &t, nil
}

// PlaceOrder runs the whole meal-order flow in one transaction: spending
// policy and balance guard via the wallet debit, vendor credit, the
// conditional inventory decrement, the per-day sequence bump, and the
// token insert. Any guard failure aborts with no partial writes.
func (s *TokenStore) PlaceOrder(userID, mealID int64, quantity int, pickupTime string, now time.Time) (*model.Token, error) {
	if quantity < 1 || quantity > 5 {
		return nil, fmt.Errorf("quantity must be between 1 and 5")
	}
	if !token.ValidPickupTime(pickupTime) {
		return nil, fmt.Errorf("invalid pickup time %q", pickupTime)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	meal, err := getMeal(tx, mealID)
	if err != nil {
		return nil, err
	}
	if meal == nil {
		return nil, fmt.Errorf("meal %d not found", mealID)
	}
	if !meal.CheckAvailability(quantity) {
		return nil, ErrInsufficientQuantity
	}

	totalAmount := meal.Price.Mul(decimal.NewFromInt(int64(quantity)))
	reference := "MEAL-" + uuid.NewString()

	wallet, err := getWallet(tx, `SELECT `+walletCols+` FROM wallets WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet for user %d not found", userID)
	}

	description := fmt.Sprintf("Payment for %s x%d", meal.Name, quantity)
	if _, err := debitWallet(tx, wallet.ID, totalAmount, description, reference, now); err != nil {
		return nil, err
	}

	// The sale lands in the vendor's wallet in the same unit of work.
	vendorWallet, err := getWallet(tx,
		`SELECT w.`+vendorWalletCols+` FROM wallets w
		 JOIN vendors v ON v.user_id = w.user_id
		 WHERE v.id = ?`, meal.VendorID)
	if err != nil {
		return nil, err
	}
	if vendorWallet != nil {
		saleDesc := fmt.Sprintf("Sale of %s x%d", meal.Name, quantity)
		if _, err := creditWallet(tx, vendorWallet.ID, totalAmount, saleDesc, reference, now); err != nil {
			return nil, err
		}
	}

	if err := decrementMeal(tx, mealID, quantity, now); err != nil {
		return nil, err
	}

	seq, err := nextSequence(tx, now)
	if err != nil {
		return nil, err
	}
	number := token.FormatNumber(now, seq)

	qrPayload, err := token.QRPayload(number)
	if err != nil {
		return nil, err
	}

	expiresAt := token.ExpiryFor(pickupTime, now)
	result, err := tx.Exec(
		`INSERT INTO tokens (token_number, user_id, meal_id, quantity, total_amount, pickup_time, status, qr_payload, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'active', ?, ?, ?)`,
		number, userID, mealID, quantity, totalAmount.String(), pickupTime, qrPayload, expiresAt, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	t, err := scanToken(tx.QueryRow(`SELECT `+tokenCols+` FROM tokens WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

// vendorWalletCols mirrors walletCols with the table alias needed by the
// vendor-wallet join.
const vendorWalletCols = `id, w.user_id, balance, daily_limit, daily_spent, last_reset_date, w.created_at, w.updated_at`

// nextSequence bumps and returns the per-day token counter. A dedicated
// counter row replaces scanning existing numbers for the day's maximum,
// which is racy under concurrent issuance.
func nextSequence(q querier, now time.Time) (int64, error) {
	day := now.Format("2006-01-02")
	var seq int64
	err := q.QueryRow(
		`INSERT INTO token_counters (day, seq) VALUES (?, 1)
		 ON CONFLICT (day) DO UPDATE SET seq = seq + 1
		 RETURNING seq`,
		day,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next token sequence: %w", err)
	}
	return seq, nil
}

func (s *TokenStore) GetByID(id int64) (*model.Token, error) {
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM tokens WHERE id = ?`, id)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

func (s *TokenStore) GetByNumber(number string) (*model.Token, error) {
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM tokens WHERE token_number = ?`, number)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token by number: %w", err)
	}
	return t, nil
}

func (s *TokenStore) ListByUser(userID int64) ([]model.Token, error) {
	return s.list(`SELECT `+tokenCols+` FROM tokens WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

// ListByVendor returns tokens for meals belonging to a vendor, newest first.
func (s *TokenStore) ListByVendor(vendorID int64) ([]model.Token, error) {
	return s.list(
		`SELECT t.`+vendorTokenCols+` FROM tokens t
		 JOIN meals m ON m.id = t.meal_id
		 WHERE m.vendor_id = ? ORDER BY t.created_at DESC, t.id DESC`, vendorID)
}

const vendorTokenCols = `id, token_number, t.user_id, meal_id, quantity, total_amount, pickup_time, t.status, qr_payload,
	expires_at, used_at, cancelled_at, cancel_reason, refund_status, refund_amount, t.created_at`

func (s *TokenStore) list(query string, args ...any) ([]model.Token, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// Use redeems an active token at pickup. A lapsed token is flipped to
// expired before ErrExpired is reported, so expiry is detected lazily
// without a background sweep.
func (s *TokenStore) Use(id int64, now time.Time) (*model.Token, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	t, err := s.guardActive(tx, id, now)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`UPDATE tokens SET status = 'used', used_at = ? WHERE id = ?`, now, t.ID); err != nil {
		return nil, fmt.Errorf("use token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Cancel voluntarily retires an active token and marks its refund
// pending. Money does not move here; a separate refund step credits the
// wallet and settles the refund status.
func (s *TokenStore) Cancel(id int64, reason string, now time.Time) (*model.Token, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	t, err := s.guardActive(tx, id, now)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		`UPDATE tokens SET status = 'cancelled', cancelled_at = ?, cancel_reason = ?, refund_status = 'pending', refund_amount = ? WHERE id = ?`,
		now, reason, t.TotalAmount.String(), t.ID,
	); err != nil {
		return nil, fmt.Errorf("cancel token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// guardActive loads the token and enforces the active/expiry guards shared
// by Use and Cancel. On a lapsed token it persists the expired status
// before returning ErrExpired.
func (s *TokenStore) guardActive(tx *sql.Tx, id int64, now time.Time) (*model.Token, error) {
	t, err := scanToken(tx.QueryRow(`SELECT `+tokenCols+` FROM tokens WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("token %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	if t.Status != model.TokenActive {
		return nil, fmt.Errorf("%w: status is %s", ErrInvalidState, t.Status)
	}
	if token.IsExpired(t.ExpiresAt, now) {
		if _, err := tx.Exec(`UPDATE tokens SET status = 'expired' WHERE id = ?`, t.ID); err != nil {
			return nil, fmt.Errorf("expire token: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return nil, ErrExpired
	}
	return t, nil
}

// ProcessRefund settles a pending refund as processed or failed.
func (s *TokenStore) ProcessRefund(id int64, status model.RefundStatus) (*model.Token, error) {
	if status != model.RefundProcessed && status != model.RefundFailed {
		return nil, fmt.Errorf("%w: refund status %s", ErrInvalidState, status)
	}

	result, err := s.db.Exec(
		`UPDATE tokens SET refund_status = ? WHERE id = ? AND refund_status = 'pending'`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("process refund: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: refund is not pending", ErrInvalidState)
	}
	return s.GetByID(id)
}
