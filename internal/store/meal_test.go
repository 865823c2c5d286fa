package store

import (
	"testing"
	"time"

	"github.com/ewhitmore/campuspay/internal/database"
	"github.com/ewhitmore/campuspay/internal/model"
)

func setupMealTestDB(t *testing.T) (*MealStore, *model.Vendor) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	us := NewUserStore(db)
	u, err := us.Create("vendor@school.test", "hash", "Canteen", "vendor", now)
	if err != nil {
		t.Fatalf("create vendor user: %v", err)
	}
	v, err := NewVendorStore(db).Create(u.ID, "Main Canteen", "C1", now)
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	return NewMealStore(db), v
}

func TestMealCRUD(t *testing.T) {
	ms, v := setupMealTestDB(t)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	m, err := ms.Create(v.ID, "Veg Thali", "Rice, dal, sabzi", dec(t, "45"), model.CategoryLunch, true, "", 10, now)
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	if m.Name != "Veg Thali" {
		t.Errorf("name = %q, want %q", m.Name, "Veg Thali")
	}
	if !m.Available {
		t.Error("expected available with stock")
	}
	if m.AvailableQuantity != 10 {
		t.Errorf("quantity = %d, want 10", m.AvailableQuantity)
	}

	updated, err := ms.Update(m.ID, "Veg Thali Deluxe", m.Description, dec(t, "55"), m.Category, true, "", now)
	if err != nil {
		t.Fatalf("update meal: %v", err)
	}
	if updated.Name != "Veg Thali Deluxe" {
		t.Errorf("name = %q, want %q", updated.Name, "Veg Thali Deluxe")
	}
	if !updated.Price.Equal(dec(t, "55")) {
		t.Errorf("price = %s, want 55", updated.Price)
	}

	if err := ms.Delete(m.ID); err != nil {
		t.Fatalf("delete meal: %v", err)
	}
	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get deleted meal: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestMealCreateSoldOut(t *testing.T) {
	ms, v := setupMealTestDB(t)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	m, err := ms.Create(v.ID, "Samosa", "", dec(t, "15"), model.CategorySnacks, true, "", 0, now)
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	if m.Available {
		t.Error("meal with zero stock should not be available")
	}
}

func TestMealDecrement(t *testing.T) {
	ms, v := setupMealTestDB(t)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	m, err := ms.Create(v.ID, "Samosa", "", dec(t, "15"), model.CategorySnacks, true, "", 3, now)
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}

	// Taking the last of the stock clears the available flag.
	if err := ms.Decrement(m.ID, 3, now); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	got, _ := ms.GetByID(m.ID)
	if got.AvailableQuantity != 0 {
		t.Errorf("quantity = %d, want 0", got.AvailableQuantity)
	}
	if got.Available {
		t.Error("expected unavailable at zero stock")
	}
	if got.CheckAvailability(1) {
		t.Error("CheckAvailability(1) should be false at zero stock")
	}
}

func TestMealDecrementInsufficient(t *testing.T) {
	ms, v := setupMealTestDB(t)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	m, err := ms.Create(v.ID, "Samosa", "", dec(t, "15"), model.CategorySnacks, true, "", 2, now)
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}

	if err := ms.Decrement(m.ID, 3, now); err != ErrInsufficientQuantity {
		t.Fatalf("decrement: err = %v, want ErrInsufficientQuantity", err)
	}
	// Stock unchanged after refusal.
	got, _ := ms.GetByID(m.ID)
	if got.AvailableQuantity != 2 {
		t.Errorf("quantity = %d, want 2", got.AvailableQuantity)
	}
	if !got.Available {
		t.Error("expected still available")
	}
}

func TestMealRestock(t *testing.T) {
	ms, v := setupMealTestDB(t)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	m, err := ms.Create(v.ID, "Samosa", "", dec(t, "15"), model.CategorySnacks, true, "", 1, now)
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	if err := ms.Decrement(m.ID, 1, now); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	restocked, err := ms.Restock(m.ID, 20, now)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if restocked.AvailableQuantity != 20 {
		t.Errorf("quantity = %d, want 20", restocked.AvailableQuantity)
	}
	if !restocked.Available {
		t.Error("expected available after restock")
	}
}

func TestMealListAvailable(t *testing.T) {
	ms, v := setupMealTestDB(t)
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	ms.Create(v.ID, "Poha", "", dec(t, "20"), model.CategoryBreakfast, true, "", 5, now)
	ms.Create(v.ID, "Sold Out", "", dec(t, "30"), model.CategoryLunch, false, "", 0, now)

	meals, err := ms.ListAvailable()
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("available meals = %d, want 1", len(meals))
	}
	if meals[0].Name != "Poha" {
		t.Errorf("meals[0].Name = %q, want %q", meals[0].Name, "Poha")
	}

	all, err := ms.ListByVendor(v.ID)
	if err != nil {
		t.Fatalf("list by vendor: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("vendor meals = %d, want 2", len(all))
	}
}
