package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/equipment-inventory/internal/audit"
	auditDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/audit"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	row := auditDatamodel.SystemLog{
		Action:    entry.Action,
		Detail:    entry.Detail,
		Actor:     entry.Actor,
		CreatedAt: entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	entry.ID = row.ID
	return nil
}

func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]*audit.Entry, error) {
	var rows []auditDatamodel.SystemLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*audit.Entry, len(rows))
	for i, row := range rows {
		entries[i] = &audit.Entry{
			ID:        row.ID,
			Action:    row.Action,
			Detail:    row.Detail,
			Actor:     row.Actor,
			CreatedAt: row.CreatedAt,
		}
	}
	return entries, nil
}
