package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/catalog"
	equipmentDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/equipment"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
)

// EquipmentRepository implements equipment.Store using GORM
type EquipmentRepository struct {
	db *gorm.DB
}

// NewEquipmentRepository creates a new equipment repository
func NewEquipmentRepository(db *gorm.DB) equipment.Store {
	return &EquipmentRepository{db: db}
}

// Get retrieves a unit by its tag
func (r *EquipmentRepository) Get(ctx context.Context, tag string) (*equipment.Equipment, error) {
	var row equipmentDatamodel.Equipment
	err := r.db.WithContext(ctx).Where("tag = ?", tag).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEquipmentNotFound
		}
		return nil, err
	}
	return equipment.FromDataModel(&row), nil
}

func (r *EquipmentRepository) SerialExists(ctx context.Context, serial, exceptTag string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&equipmentDatamodel.Equipment{}).Where("serial = ?", serial)
	if exceptTag != "" {
		q = q.Where("tag <> ?", exceptTag)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *EquipmentRepository) Create(ctx context.Context, e *equipment.Equipment) error {
	return r.db.WithContext(ctx).Create(equipment.ToDataModel(e)).Error
}

// Update writes every column of e, including cleared optional fields
func (r *EquipmentRepository) Update(ctx context.Context, e *equipment.Equipment) error {
	result := r.db.WithContext(ctx).Save(equipment.ToDataModel(e))
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, tag string) error {
	result := r.db.WithContext(ctx).Where("tag = ?", tag).Delete(&equipmentDatamodel.Equipment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrEquipmentNotFound
	}
	return nil
}

// List retrieves units matching filter ordered by tag
func (r *EquipmentRepository) List(ctx context.Context, filter equipment.ListFilter) ([]*equipment.Equipment, error) {
	var rows []*equipmentDatamodel.Equipment
	q := r.db.WithContext(ctx).Model(&equipmentDatamodel.Equipment{})

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if filter.Type != "" {
		q = q.Where("LOWER(type) = ?", strings.ToLower(filter.Type))
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(tag) LIKE ? OR LOWER(serial) LIKE ? OR LOWER(model) LIKE ? OR LOWER(COALESCE(assigned_name, '')) LIKE ?",
			like, like, like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if err := q.Order("tag ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return equipment.FromDataModelSlice(rows), nil
}

func (r *EquipmentRepository) CountByStatus(ctx context.Context) (map[equipment.Status]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&equipmentDatamodel.Equipment{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[equipment.Status]int64, len(rows))
	for _, row := range rows {
		counts[equipment.Status(row.Status)] = row.Total
	}
	return counts, nil
}

// CountAwaitingRenewalApproval counts outgoing renewal units. The incoming
// unit of a pair carries no renewal due date and is not counted.
func (r *EquipmentRepository) CountAwaitingRenewalApproval(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&equipmentDatamodel.Equipment{}).
		Where("status = ? AND renewal_due_date IS NOT NULL", equipment.StatusInRenewal).
		Count(&count).Error
	return count, err
}

func (r *EquipmentRepository) AppendMovement(ctx context.Context, m *equipment.Movement) error {
	row := equipment.MovementToDataModel(m)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	m.ID = row.ID
	return nil
}

func (r *EquipmentRepository) CountMovements(ctx context.Context, tag string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&equipmentDatamodel.MovementLog{}).
		Where("equipment_tag = ?", tag).
		Count(&count).Error
	return count, err
}

// Movements returns the history of tag oldest first
func (r *EquipmentRepository) Movements(ctx context.Context, tag string) ([]*equipment.Movement, error) {
	var rows []*equipmentDatamodel.MovementLog
	err := r.db.WithContext(ctx).
		Where("equipment_tag = ?", tag).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return movementsFromRows(rows), nil
}

func (r *EquipmentRepository) RecentMovements(ctx context.Context, limit int) ([]*equipment.Movement, error) {
	var rows []*equipmentDatamodel.MovementLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return movementsFromRows(rows), nil
}

// IsCatalogValueInUse reports whether a unit still in the company references
// value. Units already returned to their vendor do not hold a value.
func (r *EquipmentRepository) IsCatalogValueInUse(ctx context.Context, kind, value string) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&equipmentDatamodel.Equipment{}).
		Where("status <> ?", equipment.StatusReturnedToVendor)

	switch kind {
	case catalog.KindEquipmentType:
		q = q.Where("LOWER(type) = ?", strings.ToLower(value))
	case catalog.KindBrand:
		q = q.Where("LOWER(brand) = ?", strings.ToLower(value))
	case catalog.KindVendor:
		q = q.Where("LOWER(vendor) = ?", strings.ToLower(value))
	case catalog.KindEmailDomain:
		q = q.Where("LOWER(assigned_email) LIKE ?", "%@"+strings.ToLower(value))
	default:
		return false, fmt.Errorf("unknown catalog kind %q", kind)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Transaction runs fn against a repository bound to a single transaction
func (r *EquipmentRepository) Transaction(ctx context.Context, fn func(tx equipment.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&EquipmentRepository{db: tx})
	})
}

func movementsFromRows(rows []*equipmentDatamodel.MovementLog) []*equipment.Movement {
	result := make([]*equipment.Movement, len(rows))
	for i, row := range rows {
		result[i] = equipment.MovementFromDataModel(row)
	}
	return result
}
