package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Capability is a permission token a role may hold.
type Capability string

const (
	CapRegisterEquipment Capability = "register-equipment"
	CapManageEquipment   Capability = "manage-equipment"
	CapVendorReturn      Capability = "vendor-return"
	CapManagePending     Capability = "manage-pending"
	CapApproveRenewal    Capability = "approve-renewal"
	CapDeleteEquipment   Capability = "delete-equipment"
	CapViewInventory     Capability = "view-inventory"
	CapViewHistory       Capability = "view-history"
	CapGenerateReports   Capability = "generate-reports"
	CapManageUsers       Capability = "manage-users"
	CapConfigureSystem   Capability = "configure-system"
)

func AllCapabilities() []Capability {
	return []Capability{
		CapRegisterEquipment,
		CapManageEquipment,
		CapVendorReturn,
		CapManagePending,
		CapApproveRenewal,
		CapDeleteEquipment,
		CapViewInventory,
		CapViewHistory,
		CapGenerateReports,
		CapManageUsers,
		CapConfigureSystem,
	}
}

const (
	RoleAdministrator = "Administrator"
	RoleManager       = "Manager"
	RoleViewer        = "Viewer"
)

// DefaultMatrix is the role/capability set seeded into a fresh database.
func DefaultMatrix() map[string][]Capability {
	return map[string][]Capability{
		RoleAdministrator: AllCapabilities(),
		RoleManager: {
			CapRegisterEquipment,
			CapManageEquipment,
			CapVendorReturn,
			CapViewInventory,
			CapViewHistory,
			CapGenerateReports,
		},
		RoleViewer: {
			CapViewInventory,
			CapViewHistory,
			CapGenerateReports,
		},
	}
}

// Session is the logged-in operator. It is created by Service.Login,
// rebuilt by Service.Resume on every invocation and destroyed by Logout.
type Session struct {
	ID                  string
	UserID              int64
	Username            string
	FullName            string
	Role                string
	Capabilities        []Capability
	ForcePasswordChange bool
	IssuedAt            time.Time
	ExpiresAt           time.Time
}

func (s *Session) Has(c Capability) bool {
	if s == nil {
		return false
	}
	for _, granted := range s.Capabilities {
		if granted == c {
			return true
		}
	}
	return false
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Actor is the name written to audit entries.
func (s *Session) Actor() string {
	if s == nil {
		return ""
	}
	return s.Username
}

// Credentials is what the store returns for a login attempt.
type Credentials struct {
	UserID              int64
	Username            string
	FullName            string
	Email               string
	PasswordHash        string
	Role                string
	IsActive            bool
	ForcePasswordChange bool
}

// Claims represents JWT session claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
