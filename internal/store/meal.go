package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ewhitmore/campuspay/internal/model"
)

type MealStore struct {
	db *sql.DB
}

func NewMealStore(db *sql.DB) *MealStore {
	return &MealStore{db: db}
}

const mealCols = `id, vendor_id, name, description, price, category, vegetarian, image_url, available, available_quantity, created_at, updated_at`

func scanMeal(scanner interface{ Scan(...any) error }) (*model.Meal, error) {
	var m model.Meal
	var price string
	var vegetarian, available int

	err := scanner.Scan(&m.ID, &m.VendorID, &m.Name, &m.Description, &price, &m.Category,
		&vegetarian, &m.ImageURL, &available, &m.AvailableQuantity, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if m.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	m.Vegetarian = vegetarian != 0
	m.Available = available != 0
	return &m, nil
}

func (s *MealStore) Create(vendorID int64, name, description string, price decimal.Decimal, category string, vegetarian bool, imageURL string, quantity int, now time.Time) (*model.Meal, error) {
	available := boolToInt(quantity > 0)
	result, err := s.db.Exec(
		`INSERT INTO meals (vendor_id, name, description, price, category, vegetarian, image_url, available, available_quantity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		vendorID, name, description, price.String(), category, boolToInt(vegetarian), imageURL, available, quantity, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert meal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MealStore) GetByID(id int64) (*model.Meal, error) {
	return getMeal(s.db, id)
}

func getMeal(q querier, id int64) (*model.Meal, error) {
	row := q.QueryRow(`SELECT `+mealCols+` FROM meals WHERE id = ?`, id)
	m, err := scanMeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meal: %w", err)
	}
	return m, nil
}

// ListAvailable returns meals that can currently be ordered.
func (s *MealStore) ListAvailable() ([]model.Meal, error) {
	return s.list(`SELECT ` + mealCols + ` FROM meals WHERE available = 1 ORDER BY category ASC, name ASC`)
}

// ListByVendor returns all of a vendor's meals, including sold-out ones.
func (s *MealStore) ListByVendor(vendorID int64) ([]model.Meal, error) {
	return s.list(`SELECT `+mealCols+` FROM meals WHERE vendor_id = ? ORDER BY name ASC`, vendorID)
}

func (s *MealStore) list(query string, args ...any) ([]model.Meal, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	var meals []model.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		meals = append(meals, *m)
	}
	return meals, rows.Err()
}

func (s *MealStore) Update(id int64, name, description string, price decimal.Decimal, category string, vegetarian bool, imageURL string, now time.Time) (*model.Meal, error) {
	_, err := s.db.Exec(
		`UPDATE meals SET name = ?, description = ?, price = ?, category = ?, vegetarian = ?, image_url = ?, updated_at = ? WHERE id = ?`,
		name, description, price.String(), category, boolToInt(vegetarian), imageURL, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update meal: %w", err)
	}
	return s.GetByID(id)
}

func (s *MealStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM meals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	return nil
}

// Restock sets the available quantity and re-flags availability.
func (s *MealStore) Restock(id int64, quantity int, now time.Time) (*model.Meal, error) {
	_, err := s.db.Exec(
		`UPDATE meals SET available_quantity = ?, available = ?, updated_at = ? WHERE id = ?`,
		quantity, boolToInt(quantity > 0), now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("restock meal: %w", err)
	}
	return s.GetByID(id)
}

// Decrement atomically reserves quantity units of a meal. The guard and
// the mutation are a single conditional UPDATE: it only fires while the
// meal is available with enough stock, and it clears the available flag
// when stock hits zero. Returns ErrInsufficientQuantity if the guard
// refuses.
func (s *MealStore) Decrement(id int64, quantity int, now time.Time) error {
	return decrementMeal(s.db, id, quantity, now)
}

func decrementMeal(q querier, id int64, quantity int, now time.Time) error {
	if quantity <= 0 {
		return ErrInvalidAmount
	}
	result, err := q.Exec(
		`UPDATE meals
		 SET available_quantity = available_quantity - ?,
		     available = CASE WHEN available_quantity - ? <= 0 THEN 0 ELSE 1 END,
		     updated_at = ?
		 WHERE id = ? AND available = 1 AND available_quantity >= ?`,
		quantity, quantity, now, id, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement meal: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrInsufficientQuantity
	}
	return nil
}
