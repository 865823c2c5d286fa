package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ewhitmore/campuspay/internal/model"
)

// SettingsStore manages the single school-wide settings row, seeded by
// the schema migration.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get() (*model.Settings, error) {
	var st model.Settings
	var allowParent, allowVendor int
	var maxLimit string

	err := s.db.QueryRow(
		`SELECT school_name, contact_email, contact_phone, allow_parent_registration, allow_vendor_registration, max_daily_spend_limit, updated_at
		 FROM settings WHERE id = 1`,
	).Scan(&st.SchoolName, &st.ContactEmail, &st.ContactPhone, &allowParent, &allowVendor, &maxLimit, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	st.AllowParentRegistration = allowParent != 0
	st.AllowVendorRegistration = allowVendor != 0
	if st.MaxDailySpendLimit, err = parseDecimal(maxLimit); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SettingsStore) Update(st model.Settings, now time.Time) (*model.Settings, error) {
	_, err := s.db.Exec(
		`UPDATE settings SET school_name = ?, contact_email = ?, contact_phone = ?,
		 allow_parent_registration = ?, allow_vendor_registration = ?, max_daily_spend_limit = ?, updated_at = ?
		 WHERE id = 1`,
		st.SchoolName, st.ContactEmail, st.ContactPhone,
		boolToInt(st.AllowParentRegistration), boolToInt(st.AllowVendorRegistration),
		st.MaxDailySpendLimit.String(), now,
	)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.Get()
}
