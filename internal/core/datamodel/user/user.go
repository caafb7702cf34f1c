package user

import "time"

type User struct {
	ID                  int64      `gorm:"primaryKey"`
	Username            string     `gorm:"column:username;uniqueIndex;not null"`
	FullName            string     `gorm:"column:full_name;not null"`
	Email               string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash        string     `gorm:"column:password_hash;not null"`
	RoleID              int64      `gorm:"column:role_id;not null"`
	Role                Role       `gorm:"foreignKey:RoleID"`
	IsActive            bool       `gorm:"column:is_active;not null;default:true"`
	ForcePasswordChange bool       `gorm:"column:force_password_change;not null;default:false"`
	LastLoginAt         *time.Time `gorm:"column:last_login_at"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:name;uniqueIndex;not null"`
	Description string `gorm:"column:description"`
}

func (Role) TableName() string {
	return "roles"
}

type RoleCapability struct {
	ID         int64  `gorm:"primaryKey"`
	RoleID     int64  `gorm:"column:role_id;not null;uniqueIndex:idx_role_capability"`
	Capability string `gorm:"column:capability;not null;uniqueIndex:idx_role_capability"`
}

func (RoleCapability) TableName() string {
	return "role_capabilities"
}

// All lists every row model, in dependency order, for AutoMigrate in tests.
func All() []interface{} {
	return []interface{}{&Role{}, &RoleCapability{}, &User{}}
}
