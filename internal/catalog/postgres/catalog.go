package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/catalog"
	catalogDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/catalog"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) catalog.RepositoryAPI {
	return &CatalogRepository{db: db}
}

// GetAll lists every value of kind, or of every kind when kind is empty.
func (r *CatalogRepository) GetAll(ctx context.Context, kind string) ([]*catalog.Parameter, error) {
	var rows []*catalogDatamodel.Parameter
	q := r.db.WithContext(ctx)
	if kind != "" {
		q = q.Where("type = ?", kind)
	}
	if err := q.Order("type ASC, value ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	params := make([]*catalog.Parameter, len(rows))
	for i, row := range rows {
		params[i] = catalog.FromDataModel(row)
	}
	return params, nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*catalog.Parameter, error) {
	var row catalogDatamodel.Parameter
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCatalogNotFound
		}
		return nil, err
	}
	return catalog.FromDataModel(&row), nil
}

// GetByValue matches value case-insensitively within kind.
func (r *CatalogRepository) GetByValue(ctx context.Context, kind, value string) (*catalog.Parameter, error) {
	var row catalogDatamodel.Parameter
	err := r.db.WithContext(ctx).
		Where("type = ? AND LOWER(value) = ?", kind, strings.ToLower(value)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCatalogNotFound
		}
		return nil, err
	}
	return catalog.FromDataModel(&row), nil
}

func (r *CatalogRepository) Create(ctx context.Context, p *catalog.Parameter) error {
	row := catalog.ToDataModel(p)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	return nil
}

func (r *CatalogRepository) Update(ctx context.Context, p *catalog.Parameter) error {
	return r.db.WithContext(ctx).
		Model(&catalogDatamodel.Parameter{}).
		Where("id = ?", p.ID).
		Update("is_active", p.IsActive).Error
}

func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&catalogDatamodel.Parameter{}).Error
}
