package models

import "time"

// RoleType defines the staff role type
type RoleType string

const (
	RoleAdmin     RoleType = "ADMIN"
	RoleRegistrar RoleType = "REGISTRAR"
)

// Admin defines a staff user based on the 'admins' table. Staff users decide
// admissions and manage the voucher pool.
type Admin struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Username    string     `json:"username" db:"username" example:"registrar"`
	Password    string     `json:"-" db:"password"` // bcrypt hash (excluded from JSON)
	FullName    string     `json:"fullName" db:"full_name" example:"Kofi Boateng"`
	Role        RoleType   `json:"role" db:"role" example:"ADMIN"`
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}
