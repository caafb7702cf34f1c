package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/equipment-inventory/internal/report"
)

// ReportRepository reads report rows with squirrel-built SQL over sqlx.
type ReportRepository struct {
	db   *sqlx.DB
	psql sq.StatementBuilderType
}

func NewReportRepository(db *sqlx.DB) report.Reader {
	var format sq.PlaceholderFormat = sq.Question
	if sqlx.BindType(db.DriverName()) == sqlx.DOLLAR {
		format = sq.Dollar
	}
	return &ReportRepository{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

func (r *ReportRepository) Inventory(ctx context.Context, filter report.InventoryFilter) ([]report.InventoryRow, error) {
	q := r.psql.Select(
		"tag", "type", "brand", "model", "serial", "vendor", "status",
		"assigned_name", "assigned_email", "observations", "registered_at",
		"loan_due_date", "vendor_return_date", "vendor_return_reason",
	).From("equipment")

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(sq.Eq{"status": statuses})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"type": filter.Type})
	}

	query, args, err := q.OrderBy("status ASC", "tag ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build inventory query: %w", err)
	}

	rows := []report.InventoryRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	return rows, nil
}

func (r *ReportRepository) Movements(ctx context.Context, filter report.MovementFilter) ([]report.MovementRow, error) {
	q := r.psql.Select("id", "equipment_tag", "action", "detail", "actor", "created_at").From("movement_log")

	if filter.Tag != "" {
		q = q.Where(sq.Eq{"equipment_tag": filter.Tag})
	}
	if filter.From != nil {
		q = q.Where(sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(sq.LtOrEq{"created_at": *filter.To})
	}

	query, args, err := q.OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build movement query: %w", err)
	}

	rows := []report.MovementRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	return rows, nil
}
