package models

import "time"

// User represents a registered account. Identity (sign-in, credentials) lives
// with the external provider; this row carries the profile and role.
type User struct {
	ID          string     `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Name        string     `json:"name" db:"name"`
	Role        Role       `json:"role" db:"role"`
	Phone       string     `json:"phone,omitempty" db:"phone"`
	PhotoURL    string     `json:"photoUrl,omitempty" db:"photo_url"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}
