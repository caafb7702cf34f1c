package catalog

import "time"

type Parameter struct {
	ID        int64     `gorm:"primaryKey"`
	Type      string    `gorm:"column:type;not null;uniqueIndex:idx_catalog_type_value"`
	Value     string    `gorm:"column:value;not null;uniqueIndex:idx_catalog_type_value"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Parameter) TableName() string {
	return "catalog_parameters"
}
