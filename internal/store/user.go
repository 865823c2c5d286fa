package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ewhitmore/campuspay/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, email, password_hash, name, role, parent_id, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var parentID sql.NullInt64

	err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &parentID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		u.ParentID = &parentID.Int64
	}
	return &u, nil
}

func (s *UserStore) Create(email, passwordHash, name, role string, now time.Time) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, name, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		email, passwordHash, name, role, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateName updates the user's display name.
func (s *UserStore) UpdateName(id int64, name string, now time.Time) (*model.User, error) {
	_, err := s.db.Exec(`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`, name, now, id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// LinkParent attaches a parent account to a student account.
func (s *UserStore) LinkParent(studentID, parentID int64, now time.Time) error {
	_, err := s.db.Exec(`UPDATE users SET parent_id = ?, updated_at = ? WHERE id = ?`, parentID, now, studentID)
	if err != nil {
		return fmt.Errorf("link parent: %w", err)
	}
	return nil
}

// ListStudentsByParent returns the student accounts linked to a parent.
func (s *UserStore) ListStudentsByParent(parentID int64) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE parent_id = ? AND role = 'student' ORDER BY name ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
