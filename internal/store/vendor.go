package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ewhitmore/campuspay/internal/model"
)

type VendorStore struct {
	db *sql.DB
}

func NewVendorStore(db *sql.DB) *VendorStore {
	return &VendorStore{db: db}
}

const vendorCols = `id, user_id, business_name, counter_number, created_at, updated_at`

func scanVendor(scanner interface{ Scan(...any) error }) (*model.Vendor, error) {
	var v model.Vendor
	err := scanner.Scan(&v.ID, &v.UserID, &v.BusinessName, &v.CounterNumber, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *VendorStore) Create(userID int64, businessName, counterNumber string, now time.Time) (*model.Vendor, error) {
	result, err := s.db.Exec(
		`INSERT INTO vendors (user_id, business_name, counter_number, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID, businessName, counterNumber, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert vendor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *VendorStore) GetByID(id int64) (*model.Vendor, error) {
	row := s.db.QueryRow(`SELECT `+vendorCols+` FROM vendors WHERE id = ?`, id)
	v, err := scanVendor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	return v, nil
}

func (s *VendorStore) GetByUserID(userID int64) (*model.Vendor, error) {
	row := s.db.QueryRow(`SELECT `+vendorCols+` FROM vendors WHERE user_id = ?`, userID)
	v, err := scanVendor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor by user: %w", err)
	}
	return v, nil
}

func (s *VendorStore) Update(id int64, businessName, counterNumber string, now time.Time) (*model.Vendor, error) {
	_, err := s.db.Exec(
		`UPDATE vendors SET business_name = ?, counter_number = ?, updated_at = ? WHERE id = ?`,
		businessName, counterNumber, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update vendor: %w", err)
	}
	return s.GetByID(id)
}

func (s *VendorStore) List() ([]model.Vendor, error) {
	rows, err := s.db.Query(`SELECT ` + vendorCols + ` FROM vendors ORDER BY business_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, *v)
	}
	return vendors, rows.Err()
}
