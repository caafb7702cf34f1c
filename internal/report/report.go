package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
)

// InventoryRow is one equipment row as read for a workbook.
type InventoryRow struct {
	Tag                string     `db:"tag"`
	Type               string     `db:"type"`
	Brand              string     `db:"brand"`
	Model              string     `db:"model"`
	Serial             string     `db:"serial"`
	Vendor             *string    `db:"vendor"`
	Status             string     `db:"status"`
	AssignedName       *string    `db:"assigned_name"`
	AssignedEmail      *string    `db:"assigned_email"`
	Observations       string     `db:"observations"`
	RegisteredAt       time.Time  `db:"registered_at"`
	LoanDueDate        *time.Time `db:"loan_due_date"`
	VendorReturnDate   *time.Time `db:"vendor_return_date"`
	VendorReturnReason *string    `db:"vendor_return_reason"`
}

type MovementRow struct {
	ID           int64     `db:"id"`
	EquipmentTag string    `db:"equipment_tag"`
	Action       string    `db:"action"`
	Detail       string    `db:"detail"`
	Actor        string    `db:"actor"`
	CreatedAt    time.Time `db:"created_at"`
}

type InventoryFilter struct {
	Statuses []equipment.Status
	Type     string
}

// MovementFilter bounds are inclusive; a zero Tag means every unit.
type MovementFilter struct {
	Tag  string
	From *time.Time
	To   *time.Time
}

type Reader interface {
	Inventory(ctx context.Context, filter InventoryFilter) ([]InventoryRow, error)
	Movements(ctx context.Context, filter MovementFilter) ([]MovementRow, error)
}

type Service struct {
	reader    Reader
	gate      auth.Authorizer
	outputDir string
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(reader Reader, gate auth.Authorizer, outputDir string, logger *slog.Logger) *Service {
	return &Service{
		reader:    reader,
		gate:      gate,
		outputDir: outputDir,
		now:       time.Now,
		logger:    logger,
	}
}

// Inventory writes every unit matching filter, one status-coloured row each,
// and returns the workbook path.
func (s *Service) Inventory(ctx context.Context, session *auth.Session, filter InventoryFilter) (string, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapGenerateReports); err != nil {
		return "", err
	}

	rows, err := s.reader.Inventory(ctx, filter)
	if err != nil {
		s.logger.Error("failed to read inventory", "error", err)
		return "", internal.NewInternalError("failed to read inventory", err)
	}

	wb := newWorkbook("Inventory")
	wb.header(inventoryColumns)
	for _, r := range rows {
		wb.row(inventoryValues(r), r.Status)
	}
	return s.save(wb, "inventory", len(rows), session)
}

func (s *Service) VendorReturned(ctx context.Context, session *auth.Session) (string, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapGenerateReports); err != nil {
		return "", err
	}

	rows, err := s.reader.Inventory(ctx, InventoryFilter{
		Statuses: []equipment.Status{equipment.StatusPendingVendorReturn, equipment.StatusReturnedToVendor},
	})
	if err != nil {
		s.logger.Error("failed to read vendor returns", "error", err)
		return "", internal.NewInternalError("failed to read vendor returns", err)
	}

	wb := newWorkbook("Vendor returns")
	wb.header([]string{"Tag", "Type", "Brand", "Model", "Serial", "Vendor", "Status", "Return date", "Reason", "Observations"})
	for _, r := range rows {
		wb.row([]interface{}{
			r.Tag, r.Type, r.Brand, r.Model, r.Serial, deref(r.Vendor), r.Status,
			day(r.VendorReturnDate), deref(r.VendorReturnReason), r.Observations,
		}, r.Status)
	}
	return s.save(wb, "vendor_returns", len(rows), session)
}

func (s *Service) MovementLog(ctx context.Context, session *auth.Session, filter MovementFilter) (string, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapGenerateReports); err != nil {
		return "", err
	}
	if err := s.gate.Authorize(ctx, session, auth.CapViewHistory); err != nil {
		return "", err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return "", internal.NewValidationFieldError("to", "end date must not be before start date", internal.ErrCodeInvalidDate)
	}
	filter.Tag = validation.NormalizeTag(filter.Tag)

	rows, err := s.reader.Movements(ctx, filter)
	if err != nil {
		s.logger.Error("failed to read movement log", "error", err)
		return "", internal.NewInternalError("failed to read movement log", err)
	}

	wb := newWorkbook("Movements")
	wb.header(movementColumns)
	for _, r := range rows {
		wb.row(movementValues(r), "")
	}
	return s.save(wb, "movements", len(rows), session)
}

// History writes the full audit trail of one unit. Units that were deleted
// still have a trail, so only an empty trail is reported as not found.
func (s *Service) History(ctx context.Context, session *auth.Session, tag string) (string, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapGenerateReports); err != nil {
		return "", err
	}
	if err := s.gate.Authorize(ctx, session, auth.CapViewHistory); err != nil {
		return "", err
	}

	tag = validation.NormalizeTag(tag)
	rows, err := s.reader.Movements(ctx, MovementFilter{Tag: tag})
	if err != nil {
		s.logger.Error("failed to read equipment history", "error", err, "tag", tag)
		return "", internal.NewInternalError("failed to read equipment history", err)
	}
	if len(rows) == 0 {
		return "", internal.ErrEquipmentNotFound.WithMessage("no history for equipment %s", tag)
	}

	wb := newWorkbook(tag)
	wb.header(movementColumns)
	for _, r := range rows {
		wb.row(movementValues(r), "")
	}
	return s.save(wb, "history_"+strings.ToLower(tag), len(rows), session)
}

func (s *Service) save(wb *workbook, prefix string, rows int, session *auth.Session) (string, error) {
	defer wb.close()

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		s.logger.Error("failed to create report directory", "error", err, "dir", s.outputDir)
		return "", internal.NewInternalError("failed to create report directory", err)
	}

	name := fmt.Sprintf("%s_%s.xlsx", prefix, s.now().Format("20060102_150405"))
	path := filepath.Join(s.outputDir, name)
	if err := wb.saveAs(path); err != nil {
		s.logger.Error("failed to write workbook", "error", err, "path", path)
		return "", internal.NewInternalError("failed to write workbook", err)
	}

	s.logger.Info("report generated", "path", path, "rows", rows, "actor", session.Actor())
	return path, nil
}

var (
	inventoryColumns = []string{"Tag", "Type", "Brand", "Model", "Serial", "Vendor", "Status", "Assigned to", "Email", "Registered", "Loan due", "Observations"}
	movementColumns  = []string{"Date", "Tag", "Action", "Detail", "Actor"}
)

func inventoryValues(r InventoryRow) []interface{} {
	return []interface{}{
		r.Tag, r.Type, r.Brand, r.Model, r.Serial, deref(r.Vendor), r.Status,
		deref(r.AssignedName), deref(r.AssignedEmail),
		r.RegisteredAt.Format(validation.DateLayout), day(r.LoanDueDate), r.Observations,
	}
}

func movementValues(r MovementRow) []interface{} {
	return []interface{}{r.CreatedAt.Format("02/01/2006 15:04"), r.EquipmentTag, r.Action, r.Detail, r.Actor}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func day(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(validation.DateLayout)
}
