package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ewhitmore/campuspay/internal/model"
	"github.com/ewhitmore/campuspay/internal/spending"
)

type WalletStore struct {
	db *sql.DB
}

func NewWalletStore(db *sql.DB) *WalletStore {
	return &WalletStore{db: db}
}

const walletCols = `id, user_id, balance, daily_limit, daily_spent, last_reset_date, created_at, updated_at`

func scanWallet(scanner interface{ Scan(...any) error }) (*model.Wallet, error) {
	var w model.Wallet
	var balance, limit, spent string

	err := scanner.Scan(&w.ID, &w.UserID, &balance, &limit, &spent, &w.LastResetDate, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if w.Balance, err = parseDecimal(balance); err != nil {
		return nil, err
	}
	if w.DailyLimit, err = parseDecimal(limit); err != nil {
		return nil, err
	}
	if w.DailySpent, err = parseDecimal(spent); err != nil {
		return nil, err
	}
	return &w, nil
}

const transactionCols = `id, wallet_id, type, amount, description, reference, status, created_at`

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	var amount string

	err := scanner.Scan(&t.ID, &t.WalletID, &t.Type, &amount, &t.Description, &t.Reference, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if t.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create opens a wallet for a user with the given daily limit (zero for
// unlimited).
func (s *WalletStore) Create(userID int64, dailyLimit decimal.Decimal, now time.Time) (*model.Wallet, error) {
	result, err := s.db.Exec(
		`INSERT INTO wallets (user_id, balance, daily_limit, daily_spent, last_reset_date, created_at, updated_at)
		 VALUES (?, '0', ?, '0', ?, ?, ?)`,
		userID, dailyLimit.String(), spending.DateKey(now), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert wallet: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *WalletStore) GetByID(id int64) (*model.Wallet, error) {
	return getWallet(s.db, `SELECT `+walletCols+` FROM wallets WHERE id = ?`, id)
}

func (s *WalletStore) GetByUserID(userID int64) (*model.Wallet, error) {
	return getWallet(s.db, `SELECT `+walletCols+` FROM wallets WHERE user_id = ?`, userID)
}

func getWallet(q querier, query string, arg any) (*model.Wallet, error) {
	w, err := scanWallet(q.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// SetDailyLimit updates the wallet's daily spending limit.
func (s *WalletStore) SetDailyLimit(walletID int64, limit decimal.Decimal, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE wallets SET daily_limit = ?, updated_at = ? WHERE id = ?`,
		limit.String(), now, walletID,
	)
	if err != nil {
		return fmt.Errorf("set daily limit: %w", err)
	}
	return nil
}

// Credit appends a completed credit entry and raises the balance. It
// always succeeds for a positive amount.
func (s *WalletStore) Credit(walletID int64, amount decimal.Decimal, description, reference string, now time.Time) (*model.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	entry, err := creditWallet(tx, walletID, amount, description, reference, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}

// Debit appends a completed debit entry and lowers the balance after the
// balance and daily-limit guards pass. The daily-spent counter is lazily
// reset first if the wallet has not been touched today.
func (s *WalletStore) Debit(walletID int64, amount decimal.Decimal, description, reference string, now time.Time) (*model.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	entry, err := debitWallet(tx, walletID, amount, description, reference, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}

// creditWallet applies a credit inside the caller's transaction.
func creditWallet(q querier, walletID int64, amount decimal.Decimal, description, reference string, now time.Time) (*model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	w, err := getWallet(q, `SELECT `+walletCols+` FROM wallets WHERE id = ?`, walletID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("wallet %d not found", walletID)
	}

	newBalance := w.Balance.Add(amount)
	if _, err := q.Exec(
		`UPDATE wallets SET balance = ?, updated_at = ? WHERE id = ?`,
		newBalance.String(), now, walletID,
	); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	return appendTransaction(q, walletID, model.TransactionCredit, amount, description, reference, now)
}

// debitWallet applies a debit inside the caller's transaction, enforcing
// the balance and spending-policy guards.
func debitWallet(q querier, walletID int64, amount decimal.Decimal, description, reference string, now time.Time) (*model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	w, err := getWallet(q, `SELECT `+walletCols+` FROM wallets WHERE id = ?`, walletID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("wallet %d not found", walletID)
	}

	if spending.ResetDue(w.LastResetDate, now) {
		w.DailySpent = decimal.Zero
		w.LastResetDate = spending.DateKey(now)
	}

	if amount.GreaterThan(w.Balance) {
		return nil, ErrInsufficientBalance
	}
	if !spending.DebitAllowed(w.DailyLimit, w.DailySpent, amount) {
		return nil, ErrDailyLimitExceeded
	}

	newBalance := w.Balance.Sub(amount)
	newSpent := w.DailySpent.Add(amount)
	if _, err := q.Exec(
		`UPDATE wallets SET balance = ?, daily_spent = ?, last_reset_date = ?, updated_at = ? WHERE id = ?`,
		newBalance.String(), newSpent.String(), w.LastResetDate, now, walletID,
	); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	return appendTransaction(q, walletID, model.TransactionDebit, amount, description, reference, now)
}

func appendTransaction(q querier, walletID int64, typ model.TransactionType, amount decimal.Decimal, description, reference string, now time.Time) (*model.Transaction, error) {
	result, err := q.Exec(
		`INSERT INTO wallet_transactions (wallet_id, type, amount, description, reference, status, created_at)
		 VALUES (?, ?, ?, ?, ?, 'completed', ?)`,
		walletID, typ, amount.String(), description, reference, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := q.QueryRow(`SELECT `+transactionCols+` FROM wallet_transactions WHERE id = ?`, id)
	entry, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return entry, nil
}

// Transactions returns a page of the wallet's ledger, newest first.
func (s *WalletStore) Transactions(walletID int64, limit, offset int) ([]model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM wallet_transactions
		 WHERE wallet_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		walletID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var entries []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, *t)
	}
	return entries, rows.Err()
}

// CountTransactions returns the total number of ledger entries for a wallet.
func (s *WalletStore) CountTransactions(walletID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = ?`, walletID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
