package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ewhitmore/campuspay/internal/database"
	"github.com/ewhitmore/campuspay/internal/model"
)

type orderFixture struct {
	tokens  *TokenStore
	wallets *WalletStore
	meals   *MealStore

	studentID      int64
	studentWallet  *model.Wallet
	vendorWallet   *model.Wallet
	meal           *model.Meal
}

// setupOrderTestDB builds a funded student, a vendor with a wallet, and a
// stocked meal.
func setupOrderTestDB(t *testing.T, now time.Time) *orderFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := NewUserStore(db)
	ws := NewWalletStore(db)
	vs := NewVendorStore(db)
	ms := NewMealStore(db)

	student, err := us.Create("student@school.test", "hash", "Asha", "student", now)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	studentWallet, err := ws.Create(student.ID, dec(t, "0"), now)
	if err != nil {
		t.Fatalf("create student wallet: %v", err)
	}
	if _, err := ws.Credit(studentWallet.ID, dec(t, "500"), "top-up", "DEP-1", now); err != nil {
		t.Fatalf("fund student wallet: %v", err)
	}

	vendorUser, err := us.Create("vendor@school.test", "hash", "Canteen", "vendor", now)
	if err != nil {
		t.Fatalf("create vendor user: %v", err)
	}
	vendor, err := vs.Create(vendorUser.ID, "Main Canteen", "C1", now)
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	vendorWallet, err := ws.Create(vendorUser.ID, dec(t, "0"), now)
	if err != nil {
		t.Fatalf("create vendor wallet: %v", err)
	}

	meal, err := ms.Create(vendor.ID, "Veg Thali", "", dec(t, "45"), model.CategoryLunch, true, "", 10, now)
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}

	return &orderFixture{
		tokens:        NewTokenStore(db),
		wallets:       ws,
		meals:         ms,
		studentID:     student.ID,
		studentWallet: studentWallet,
		vendorWallet:  vendorWallet,
		meal:          meal,
	}
}

func TestPlaceOrder(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	tok, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 2, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if tok.TokenNumber != "TOK-250401-001" {
		t.Errorf("token number = %q, want %q", tok.TokenNumber, "TOK-250401-001")
	}
	if tok.Status != model.TokenActive {
		t.Errorf("status = %s, want active", tok.Status)
	}
	if !tok.TotalAmount.Equal(dec(t, "90")) {
		t.Errorf("total = %s, want 90", tok.TotalAmount)
	}
	wantExpiry := time.Date(2025, 4, 1, 13, 0, 0, 0, time.UTC)
	if !tok.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires at = %v, want %v", tok.ExpiresAt, wantExpiry)
	}
	if !strings.HasPrefix(tok.QRPayload, "data:image/png;base64,") {
		t.Error("expected QR payload data URL")
	}
	if tok.RefundStatus != model.RefundNotRequired {
		t.Errorf("refund status = %s, want not_required", tok.RefundStatus)
	}

	// Student debited, vendor credited, stock reduced.
	sw, _ := f.wallets.GetByID(f.studentWallet.ID)
	if !sw.Balance.Equal(dec(t, "410")) {
		t.Errorf("student balance = %s, want 410", sw.Balance)
	}
	vw, _ := f.wallets.GetByID(f.vendorWallet.ID)
	if !vw.Balance.Equal(dec(t, "90")) {
		t.Errorf("vendor balance = %s, want 90", vw.Balance)
	}
	m, _ := f.meals.GetByID(f.meal.ID)
	if m.AvailableQuantity != 8 {
		t.Errorf("stock = %d, want 8", m.AvailableQuantity)
	}
}

func TestPlaceOrderSnacksExpiry(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	tok, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupSnacks, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	want := time.Date(2025, 4, 1, 16, 0, 0, 0, time.UTC)
	if !tok.ExpiresAt.Equal(want) {
		t.Errorf("expires at = %v, want %v", tok.ExpiresAt, want)
	}
}

func TestPlaceOrderSequencesPerDay(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	first, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	second, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("second order: %v", err)
	}
	if first.TokenNumber != "TOK-250401-001" || second.TokenNumber != "TOK-250401-002" {
		t.Errorf("numbers = %q, %q; want dense per-day sequence", first.TokenNumber, second.TokenNumber)
	}

	// A new day starts a fresh sequence.
	nextDay := now.AddDate(0, 0, 1)
	third, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, nextDay)
	if err != nil {
		t.Fatalf("third order: %v", err)
	}
	if third.TokenNumber != "TOK-250402-001" {
		t.Errorf("number = %q, want %q", third.TokenNumber, "TOK-250402-001")
	}
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	// Stock is 10, cap per token is 5; drain to 1 first.
	if err := f.meals.Decrement(f.meal.ID, 9, now); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 2, model.PickupLunch, now)
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("place order: err = %v, want ErrInsufficientQuantity", err)
	}

	// The student debit inside the same transaction must have rolled back.
	sw, _ := f.wallets.GetByID(f.studentWallet.ID)
	if !sw.Balance.Equal(dec(t, "500")) {
		t.Errorf("student balance = %s, want 500 (rolled back)", sw.Balance)
	}
	vw, _ := f.wallets.GetByID(f.vendorWallet.ID)
	if !vw.Balance.Equal(dec(t, "0")) {
		t.Errorf("vendor balance = %s, want 0 (rolled back)", vw.Balance)
	}
	tokens, _ := f.tokens.ListByUser(f.studentID)
	if len(tokens) != 0 {
		t.Errorf("tokens = %d, want 0", len(tokens))
	}
}

func TestPlaceOrderInsufficientBalance(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	// 500 in the wallet, 5 * 45 = 225 fits; drain the wallet first.
	if _, err := f.wallets.Debit(f.studentWallet.ID, dec(t, "490"), "drain", "X", now); err != nil {
		t.Fatalf("drain wallet: %v", err)
	}

	_, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("place order: err = %v, want ErrInsufficientBalance", err)
	}
	m, _ := f.meals.GetByID(f.meal.ID)
	if m.AvailableQuantity != 10 {
		t.Errorf("stock = %d, want 10 (untouched)", m.AvailableQuantity)
	}
}

func TestTokenUse(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	tok, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	used, err := f.tokens.Use(tok.ID, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("use token: %v", err)
	}
	if used.Status != model.TokenUsed {
		t.Errorf("status = %s, want used", used.Status)
	}
	if used.UsedAt == nil {
		t.Error("expected used_at to be set")
	}

	// A used token cannot be used or cancelled again.
	if _, err := f.tokens.Use(tok.ID, now.Add(2*time.Hour)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second use: err = %v, want ErrInvalidState", err)
	}
	if _, err := f.tokens.Cancel(tok.ID, "changed my mind", now.Add(2*time.Hour)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("cancel after use: err = %v, want ErrInvalidState", err)
	}
}

func TestTokenUseExpired(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	tok, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// Lunch cutoff is 13:00; try at 14:00.
	afterCutoff := time.Date(2025, 4, 1, 14, 0, 0, 0, time.UTC)
	if _, err := f.tokens.Use(tok.ID, afterCutoff); !errors.Is(err, ErrExpired) {
		t.Fatalf("use after cutoff: err = %v, want ErrExpired", err)
	}

	// The failed attempt flipped the stored status to expired.
	got, _ := f.tokens.GetByID(tok.ID)
	if got.Status != model.TokenExpired {
		t.Errorf("status = %s, want expired", got.Status)
	}
}

func TestTokenCancelAndRefund(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	tok, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 2, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	cancelled, err := f.tokens.Cancel(tok.ID, "not hungry", now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("cancel token: %v", err)
	}
	if cancelled.Status != model.TokenCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.RefundStatus != model.RefundPending {
		t.Errorf("refund status = %s, want pending", cancelled.RefundStatus)
	}
	if cancelled.RefundAmount == nil || !cancelled.RefundAmount.Equal(dec(t, "90")) {
		t.Errorf("refund amount = %v, want 90", cancelled.RefundAmount)
	}
	if cancelled.CancelReason != "not hungry" {
		t.Errorf("cancel reason = %q, want %q", cancelled.CancelReason, "not hungry")
	}

	// Cancelling again is a state violation.
	if _, err := f.tokens.Cancel(tok.ID, "again", now.Add(time.Hour)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second cancel: err = %v, want ErrInvalidState", err)
	}

	// Cancellation did not move money; the refund step does.
	sw, _ := f.wallets.GetByID(f.studentWallet.ID)
	if !sw.Balance.Equal(dec(t, "410")) {
		t.Errorf("balance = %s, want 410 before refund", sw.Balance)
	}

	processed, err := f.tokens.ProcessRefund(tok.ID, model.RefundProcessed)
	if err != nil {
		t.Fatalf("process refund: %v", err)
	}
	if processed.RefundStatus != model.RefundProcessed {
		t.Errorf("refund status = %s, want processed", processed.RefundStatus)
	}

	// Refund settlement is one-shot.
	if _, err := f.tokens.ProcessRefund(tok.ID, model.RefundProcessed); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second process: err = %v, want ErrInvalidState", err)
	}
}

func TestTokenGetByNumber(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)

	tok, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	got, err := f.tokens.GetByNumber(tok.TokenNumber)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if got == nil || got.ID != tok.ID {
		t.Errorf("got = %+v, want token %d", got, tok.ID)
	}

	missing, err := f.tokens.GetByNumber("TOK-000000-000")
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown number")
	}
}
