package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	userDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, username string) (*auth.Credentials, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("username = ?", username).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}

	return &auth.Credentials{
		UserID:              row.ID,
		Username:            row.Username,
		FullName:            row.FullName,
		Email:               row.Email,
		PasswordHash:        row.PasswordHash,
		Role:                row.Role.Name,
		IsActive:            row.IsActive,
		ForcePasswordChange: row.ForcePasswordChange,
	}, nil
}

func (r *Repository) GetCapabilities(ctx context.Context, role string) ([]auth.Capability, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("role_capabilities rc").
		Joins("JOIN roles r ON r.id = rc.role_id").
		Where("r.name = ?", role).
		Order("rc.capability").
		Pluck("rc.capability", &names).Error
	if err != nil {
		return nil, err
	}

	caps := make([]auth.Capability, len(names))
	for i, n := range names {
		caps[i] = auth.Capability(n)
	}
	return caps, nil
}

func (r *Repository) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// SeedMatrix makes sure every role in matrix exists with exactly its capabilities.
func (r *Repository) SeedMatrix(ctx context.Context, matrix map[string][]auth.Capability) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, caps := range matrix {
			role := userDatamodel.Role{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
				return err
			}
			if err := tx.Where("role_id = ?", role.ID).Delete(&userDatamodel.RoleCapability{}).Error; err != nil {
				return err
			}
			for _, c := range caps {
				rc := userDatamodel.RoleCapability{RoleID: role.ID, Capability: string(c)}
				if err := tx.Create(&rc).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
