package store

import (
	"testing"
	"time"

	"github.com/ewhitmore/campuspay/internal/model"
)

func TestReportUserStats(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)
	rs := NewReportStore(f.tokens.db)

	tok, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 2, model.PickupLunch, now); err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err := f.tokens.Use(tok.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("use token: %v", err)
	}

	stats, err := rs.UserStats(f.studentID)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if stats.Name != "Asha" {
		t.Errorf("name = %q, want Asha", stats.Name)
	}
	if !stats.TotalDeposited.Equal(dec(t, "500")) {
		t.Errorf("deposited = %s, want 500", stats.TotalDeposited)
	}
	if !stats.TotalSpent.Equal(dec(t, "135")) {
		t.Errorf("spent = %s, want 135", stats.TotalSpent)
	}
	if !stats.WalletBalance.Equal(dec(t, "365")) {
		t.Errorf("balance = %s, want 365", stats.WalletBalance)
	}
	if stats.ActiveTokens != 1 || stats.UsedTokens != 1 {
		t.Errorf("tokens = %d active / %d used, want 1 / 1", stats.ActiveTokens, stats.UsedTokens)
	}
}

func TestReportSpendingByCategory(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)
	rs := NewReportStore(f.tokens.db)

	if _, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 2, model.PickupLunch, now); err != nil {
		t.Fatalf("place order: %v", err)
	}
	cancelled, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err := f.tokens.Cancel(cancelled.ID, "mistake", now); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	spend, err := rs.SpendingByCategory(f.studentID, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("spending by category: %v", err)
	}
	if len(spend) != 1 {
		t.Fatalf("categories = %d, want 1", len(spend))
	}
	if spend[0].Category != model.CategoryLunch {
		t.Errorf("category = %q, want %q", spend[0].Category, model.CategoryLunch)
	}
	// The cancelled order is excluded.
	if spend[0].Orders != 1 || !spend[0].Total.Equal(dec(t, "90")) {
		t.Errorf("spend = %d orders / %s, want 1 / 90", spend[0].Orders, spend[0].Total)
	}
}

func TestReportDailyTotals(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)
	rs := NewReportStore(f.tokens.db)

	if _, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now); err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("place order: %v", err)
	}

	totals, err := rs.DailyTotals(now.AddDate(0, 0, -1), now.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("daily totals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("days = %d, want 2", len(totals))
	}
	if totals[0].Day != "2025-04-01" || totals[1].Day != "2025-04-02" {
		t.Errorf("days = %q, %q; want oldest first", totals[0].Day, totals[1].Day)
	}
	if totals[0].Orders != 1 || !totals[0].Total.Equal(dec(t, "45")) {
		t.Errorf("first day = %d orders / %s, want 1 / 45", totals[0].Orders, totals[0].Total)
	}
}

func TestReportVendorSummary(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	f := setupOrderTestDB(t, now)
	rs := NewReportStore(f.tokens.db)

	first, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 2, model.PickupLunch, now)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err := f.tokens.PlaceOrder(f.studentID, f.meal.ID, 1, model.PickupLunch, now); err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err := f.tokens.Use(first.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("use token: %v", err)
	}

	summary, err := rs.VendorSummary(f.meal.VendorID)
	if err != nil {
		t.Fatalf("vendor summary: %v", err)
	}
	if summary.BusinessName != "Main Canteen" {
		t.Errorf("business name = %q, want Main Canteen", summary.BusinessName)
	}
	if summary.TokensIssued != 2 || summary.TokensRedeemed != 1 {
		t.Errorf("tokens = %d issued / %d redeemed, want 2 / 1", summary.TokensIssued, summary.TokensRedeemed)
	}
	if !summary.Revenue.Equal(dec(t, "135")) {
		t.Errorf("revenue = %s, want 135", summary.Revenue)
	}
	if len(summary.TopMeals) != 1 || summary.TopMeals[0].Quantity != 3 {
		t.Errorf("top meals = %+v, want one line with quantity 3", summary.TopMeals)
	}
}
