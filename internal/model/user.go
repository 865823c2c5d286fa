package model

import "time"

const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleVendor  = "vendor"
	RoleAdmin   = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
