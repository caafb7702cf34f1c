package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/equipment-inventory/internal"
	userDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/equipment-inventory/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("username = ?", strings.ToLower(username)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) RoleExists(ctx context.Context, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.Role{}).
		Where("name = ?", role).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.WithContext(ctx).Preload("Role").Order("username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, len(rows))
	for i, row := range rows {
		users[i] = user.FromDataModel(row)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	roleID, err := r.roleID(r.db.WithContext(ctx), u.Role)
	if err != nil {
		return err
	}

	row := user.ToDataModel(u)
	row.RoleID = roleID
	if err := r.db.WithContext(ctx).Omit("Role").Create(row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string, forceChange bool) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash":         hash,
			"force_password_change": forceChange,
		}).Error
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *UserRepository) SetRole(ctx context.Context, id int64, role string) error {
	db := r.db.WithContext(ctx)
	roleID, err := r.roleID(db, role)
	if err != nil {
		return err
	}
	return db.Model(&userDatamodel.User{}).Where("id = ?", id).Update("role_id", roleID).Error
}

func (r *UserRepository) roleID(db *gorm.DB, name string) (int64, error) {
	var role userDatamodel.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, internal.ErrRoleNotFound
		}
		return 0, err
	}
	return role.ID, nil
}
