package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/user"
)

// User is an operator account.
type User struct {
	ID                  int64      `json:"id"`
	Username            string     `json:"username"`
	FullName            string     `json:"full_name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	IsActive            bool       `json:"is_active"`
	ForcePasswordChange bool       `json:"force_password_change"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

// ToDataModel leaves RoleID unset; the repository resolves it from Role.
func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:                  u.ID,
		Username:            u.Username,
		FullName:            u.FullName,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		IsActive:            u.IsActive,
		ForcePasswordChange: u.ForcePasswordChange,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:                  u.ID,
		Username:            u.Username,
		FullName:            u.FullName,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		Role:                u.Role.Name,
		IsActive:            u.IsActive,
		ForcePasswordChange: u.ForcePasswordChange,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}
