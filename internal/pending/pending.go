package pending

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
)

type Severity string

const (
	SeverityNominal   Severity = "Nominal"
	SeverityAttention Severity = "Attention"
	SeverityCritical  Severity = "Critical"
)

// Classify maps a queue length to its severity tier. It is purely
// informational and never gates a transition.
func Classify(n int64) Severity {
	switch {
	case n <= 0:
		return SeverityNominal
	case n < 3:
		return SeverityAttention
	default:
		return SeverityCritical
	}
}

type Counts struct {
	Maintenance  int64 `json:"maintenance"`
	VendorReturn int64 `json:"vendor_return"`
	Renewal      int64 `json:"renewal"`
}

// Queue is one counter with its severity, in display order.
type Queue struct {
	Name     string   `json:"name"`
	Count    int64    `json:"count"`
	Severity Severity `json:"severity"`
}

func (c Counts) Queues() []Queue {
	return []Queue{
		{Name: "In maintenance", Count: c.Maintenance, Severity: Classify(c.Maintenance)},
		{Name: "Pending vendor return", Count: c.VendorReturn, Severity: Classify(c.VendorReturn)},
		{Name: "Renewal awaiting approval", Count: c.Renewal, Severity: Classify(c.Renewal)},
	}
}

func (c Counts) Total() int64 {
	return c.Maintenance + c.VendorReturn + c.Renewal
}

type Summary struct {
	ByStatus    map[equipment.Status]int64 `json:"by_status"`
	ActiveTotal int64                      `json:"active_total"`
	Pending     Counts                     `json:"pending"`
	Recent      []*equipment.Movement      `json:"recent"`
}

// Reader is the read side of the equipment store the view aggregates.
type Reader interface {
	CountByStatus(ctx context.Context) (map[equipment.Status]int64, error)
	CountAwaitingRenewalApproval(ctx context.Context) (int64, error)
	RecentMovements(ctx context.Context, limit int) ([]*equipment.Movement, error)
}

type Service struct {
	reader Reader
	gate   auth.Authorizer
	logger *slog.Logger
}

func NewService(reader Reader, gate auth.Authorizer, logger *slog.Logger) *Service {
	return &Service{
		reader: reader,
		gate:   gate,
		logger: logger,
	}
}

// PendingCounts reads the three work queues. Renewals only count once a due
// date has been set on the outgoing unit.
func (s *Service) PendingCounts(ctx context.Context) (Counts, error) {
	byStatus, err := s.reader.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count equipment by status", "error", err)
		return Counts{}, internal.NewInternalError("failed to count equipment", err)
	}

	renewals, err := s.reader.CountAwaitingRenewalApproval(ctx)
	if err != nil {
		s.logger.Error("failed to count renewals", "error", err)
		return Counts{}, internal.NewInternalError("failed to count renewals", err)
	}

	return Counts{
		Maintenance:  byStatus[equipment.StatusInMaintenance],
		VendorReturn: byStatus[equipment.StatusPendingVendorReturn],
		Renewal:      renewals,
	}, nil
}

// Queues is PendingCounts behind the view-inventory capability, for the CLI.
func (s *Service) Queues(ctx context.Context, session *auth.Session) ([]Queue, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapViewInventory); err != nil {
		return nil, err
	}
	counts, err := s.PendingCounts(ctx)
	if err != nil {
		return nil, err
	}
	return counts.Queues(), nil
}

func (s *Service) Summary(ctx context.Context, session *auth.Session, recent int) (*Summary, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapViewInventory); err != nil {
		return nil, err
	}

	byStatus, err := s.reader.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count equipment by status", "error", err)
		return nil, internal.NewInternalError("failed to count equipment", err)
	}

	counts, err := s.PendingCounts(ctx)
	if err != nil {
		return nil, err
	}

	var movements []*equipment.Movement
	if session.Has(auth.CapViewHistory) && recent > 0 {
		movements, err = s.reader.RecentMovements(ctx, recent)
		if err != nil {
			s.logger.Error("failed to read recent movements", "error", err)
			return nil, internal.NewInternalError("failed to read recent movements", err)
		}
	}

	var active int64
	for status, n := range byStatus {
		if status != equipment.StatusReturnedToVendor {
			active += n
		}
	}

	return &Summary{
		ByStatus:    byStatus,
		ActiveTotal: active,
		Pending:     counts,
		Recent:      movements,
	}, nil
}
