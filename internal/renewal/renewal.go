// Package renewal swaps an assigned unit for a new one in two phases: a
// start that pairs both units, and a resolution that either hands the new
// unit over or puts both back where they were.
package renewal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/confirm"
	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
	"github.com/frahmantamala/equipment-inventory/internal/core/events"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
)

// Pair is an open renewal: the outgoing unit and the one reserved for it.
type Pair struct {
	Old *equipment.Equipment `json:"old"`
	New *equipment.Equipment `json:"new"`
}

type StartDTO struct {
	OldTag        string    `json:"old_tag" validate:"required,asset_tag"`
	NewTag        string    `json:"new_tag" validate:"required,asset_tag"`
	DueDate       time.Time `json:"due_date"`
	Observations  string    `json:"observations"`
	Override      bool      `json:"override"`
	Justification string    `json:"justification,omitempty"`
}

func (dto *StartDTO) Normalize() {
	dto.OldTag = validation.NormalizeTag(dto.OldTag)
	dto.NewTag = validation.NormalizeTag(dto.NewTag)
	dto.Observations = strings.TrimSpace(dto.Observations)
	dto.Justification = strings.TrimSpace(dto.Justification)
}

type ApproveDTO struct {
	// VendorDate replaces the due date recorded at start when set.
	VendorDate   *time.Time `json:"vendor_date,omitempty"`
	Observations string     `json:"observations"`
}

type RejectDTO struct {
	Reason string `json:"reason" validate:"required"`
}

type Service struct {
	store     equipment.Store
	gate      auth.Authorizer
	confirmer confirm.Confirmer
	events    events.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(store equipment.Store, gate auth.Authorizer, confirmer confirm.Confirmer, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		gate:      gate,
		confirmer: confirmer,
		events:    publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// Start pairs an assigned unit with an available replacement. A replacement
// with any history beyond its registration is refused unless the caller
// overrides with a justification.
func (s *Service) Start(ctx context.Context, session *auth.Session, dto StartDTO) (*Pair, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageEquipment); err != nil {
		return nil, err
	}

	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	v := validation.NewValidator()
	v.Field("due_date", dto.DueDate).Required().NotBefore(s.now())
	if dto.Override {
		v.Field("justification", dto.Justification).Required()
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if dto.OldTag == dto.NewTag {
		return nil, internal.NewValidationFieldError("new_tag", "the replacement must be a different unit", internal.ErrCodeValidationFailed)
	}

	old, err := s.load(ctx, dto.OldTag)
	if err != nil {
		return nil, err
	}
	replacement, err := s.load(ctx, dto.NewTag)
	if err != nil {
		return nil, err
	}
	if err := old.Check(equipment.EventStartRenewal); err != nil {
		s.logger.Warn("renewal start rejected: outgoing unit not assigned", "tag", old.Tag, "current_status", old.Status)
		return nil, err
	}
	if err := replacement.Check(equipment.EventReserveForRenewal); err != nil {
		s.logger.Warn("renewal start rejected: replacement not available", "tag", replacement.Tag, "current_status", replacement.Status)
		return nil, err
	}

	movements, err := s.store.CountMovements(ctx, replacement.Tag)
	if err != nil {
		return nil, s.storageError("failed to count movements", err, "tag", replacement.Tag)
	}
	if movements > 1 && !dto.Override {
		s.logger.Warn("renewal start rejected: replacement is not new", "tag", replacement.Tag, "movements", movements)
		return nil, internal.NewValidationFieldError("new_tag",
			fmt.Sprintf("equipment %s has %d movements and is not new; override with a justification to use it", replacement.Tag, movements),
			internal.ErrCodeRenewalStockUsed)
	}

	if err := s.confirmer.Confirm(ctx, "outgoing tag", old.Tag); err != nil {
		return nil, err
	}
	if err := s.confirmer.Confirm(ctx, "replacement tag", replacement.Tag); err != nil {
		return nil, err
	}

	now := s.now()
	obs := validation.NormalizeObservation(dto.Observations, "None")
	if movements > 1 {
		obs = fmt.Sprintf("%s. Justification for non-new unit: %s", obs, dto.Justification)
	}
	due := validation.Day(dto.DueDate)
	holder := old.AssignedName

	if err := old.StartRenewal(replacement.Tag, due, obs, now); err != nil {
		return nil, err
	}
	if err := replacement.ReserveForRenewal(old.Tag, obs, now); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx equipment.Store) error {
		if err := tx.Update(ctx, old); err != nil {
			return err
		}
		if err := tx.Update(ctx, replacement); err != nil {
			return err
		}
		oldDetail := fmt.Sprintf("Renewal of %s's unit by %s. Approval due: %s. Obs: %s",
			holder, replacement.Tag, due.Format(validation.DateLayout), obs)
		if err := tx.AppendMovement(ctx, s.movement(old.Tag, equipment.ActionRenewalStarted, oldDetail, session, now)); err != nil {
			return err
		}
		newDetail := fmt.Sprintf("Reserved to replace %s. Obs: %s", old.Tag, obs)
		return tx.AppendMovement(ctx, s.movement(replacement.Tag, equipment.ActionRenewalStarted, newDetail, session, now))
	})
	if err != nil {
		return nil, s.storageError("failed to start renewal", err, "old_tag", old.Tag, "new_tag", replacement.Tag)
	}

	s.logger.Info("renewal started",
		"old_tag", old.Tag,
		"new_tag", replacement.Tag,
		"due_date", due.Format(validation.DateLayout),
		"override", dto.Override,
		"actor", session.Actor())
	s.publish(ctx, events.NewStatusChangedEvent(old.Tag, string(equipment.StatusAssigned), string(old.Status), equipment.ActionRenewalStarted, session.Actor()))
	s.publish(ctx, events.NewStatusChangedEvent(replacement.Tag, string(equipment.StatusAvailable), string(replacement.Status), equipment.ActionRenewalStarted, session.Actor()))

	return &Pair{Old: old, New: replacement}, nil
}

// Approve sends the outgoing unit to the vendor-return queue and assigns
// the replacement to the same holder, both in one transaction.
func (s *Service) Approve(ctx context.Context, session *auth.Session, oldTag string, dto ApproveDTO) (*Pair, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapApproveRenewal); err != nil {
		return nil, err
	}

	pair, err := s.openPair(ctx, oldTag)
	if err != nil {
		return nil, err
	}
	old, replacement := pair.Old, pair.New

	vendorDate := *old.RenewalDueDate
	if dto.VendorDate != nil {
		v := validation.NewValidator()
		v.Field("vendor_date", dto.VendorDate).NotBefore(s.now())
		if err := v.Validate(); err != nil {
			return nil, err
		}
		vendorDate = validation.Day(*dto.VendorDate)
	}

	if err := s.confirmer.Confirm(ctx, "tag", old.Tag); err != nil {
		return nil, err
	}

	now := s.now()
	obs := validation.NormalizeObservation(dto.Observations, "None")
	name, email := old.AssignedName, old.AssignedEmail

	if err := old.ApproveRenewal(vendorDate, obs, now); err != nil {
		return nil, err
	}
	if err := replacement.IssueRenewal(name, email, obs, now); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx equipment.Store) error {
		if err := tx.Update(ctx, old); err != nil {
			return err
		}
		if err := tx.Update(ctx, replacement); err != nil {
			return err
		}
		oldDetail := fmt.Sprintf("Replaced by %s. Vendor return date: %s. Obs: %s",
			replacement.Tag, vendorDate.Format(validation.DateLayout), obs)
		if err := tx.AppendMovement(ctx, s.movement(old.Tag, equipment.ActionRenewalApproved, oldDetail, session, now)); err != nil {
			return err
		}
		newDetail := fmt.Sprintf("Assigned to %s <%s> replacing %s. Obs: %s", name, email, old.Tag, obs)
		return tx.AppendMovement(ctx, s.movement(replacement.Tag, equipment.ActionAssignedByRenewal, newDetail, session, now))
	})
	if err != nil {
		return nil, s.storageError("failed to approve renewal", err, "old_tag", old.Tag, "new_tag", replacement.Tag)
	}

	s.logger.Info("renewal approved", "old_tag", old.Tag, "new_tag", replacement.Tag, "holder", email, "actor", session.Actor())
	s.publish(ctx, events.NewRenewalResolvedEvent(old.Tag, replacement.Tag, true, session.Actor()))
	s.publish(ctx, events.NewStatusChangedEvent(old.Tag, string(equipment.StatusInRenewal), string(old.Status), equipment.ActionRenewalApproved, session.Actor()))
	s.publish(ctx, events.NewStatusChangedEvent(replacement.Tag, string(equipment.StatusInRenewal), string(replacement.Status), equipment.ActionAssignedByRenewal, session.Actor()))

	return &Pair{Old: old, New: replacement}, nil
}

// Reject returns the outgoing unit to its holder and the replacement to stock.
func (s *Service) Reject(ctx context.Context, session *auth.Session, oldTag string, dto RejectDTO) (*Pair, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapApproveRenewal); err != nil {
		return nil, err
	}

	dto.Reason = strings.TrimSpace(dto.Reason)
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	pair, err := s.openPair(ctx, oldTag)
	if err != nil {
		return nil, err
	}
	old, replacement := pair.Old, pair.New

	if err := s.confirmer.Confirm(ctx, "tag", old.Tag); err != nil {
		return nil, err
	}

	now := s.now()
	reason := validation.NormalizeObservation(dto.Reason, "None")
	if err := old.RejectRenewal(reason, now); err != nil {
		return nil, err
	}
	if err := replacement.ReleaseRenewal(reason, now); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx equipment.Store) error {
		if err := tx.Update(ctx, old); err != nil {
			return err
		}
		if err := tx.Update(ctx, replacement); err != nil {
			return err
		}
		oldDetail := fmt.Sprintf("Kept by %s. Reason: %s", old.AssignedName, reason)
		if err := tx.AppendMovement(ctx, s.movement(old.Tag, equipment.ActionRenewalRejected, oldDetail, session, now)); err != nil {
			return err
		}
		newDetail := fmt.Sprintf("Released back to stock from renewal of %s. Reason: %s", old.Tag, reason)
		return tx.AppendMovement(ctx, s.movement(replacement.Tag, equipment.ActionRenewalRejected, newDetail, session, now))
	})
	if err != nil {
		return nil, s.storageError("failed to reject renewal", err, "old_tag", old.Tag, "new_tag", replacement.Tag)
	}

	s.logger.Info("renewal rejected", "old_tag", old.Tag, "new_tag", replacement.Tag, "actor", session.Actor())
	s.publish(ctx, events.NewRenewalResolvedEvent(old.Tag, replacement.Tag, false, session.Actor()))
	s.publish(ctx, events.NewStatusChangedEvent(old.Tag, string(equipment.StatusInRenewal), string(old.Status), equipment.ActionRenewalRejected, session.Actor()))
	s.publish(ctx, events.NewStatusChangedEvent(replacement.Tag, string(equipment.StatusInRenewal), string(replacement.Status), equipment.ActionRenewalRejected, session.Actor()))

	return &Pair{Old: old, New: replacement}, nil
}

// ListOpen returns the renewals awaiting approval, soonest due first.
func (s *Service) ListOpen(ctx context.Context, session *auth.Session) ([]*Pair, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapViewInventory); err != nil {
		return nil, err
	}

	items, err := s.store.List(ctx, equipment.ListFilter{Statuses: []equipment.Status{equipment.StatusInRenewal}})
	if err != nil {
		return nil, s.storageError("failed to list renewals", err)
	}

	var pairs []*Pair
	byTag := make(map[string]*equipment.Equipment, len(items))
	for _, e := range items {
		byTag[e.Tag] = e
	}
	for _, e := range items {
		if !e.AwaitingRenewalApproval() {
			continue
		}
		pairs = append(pairs, &Pair{Old: e, New: byTag[e.RenewalLinkedTag]})
	}

	sortByDue(pairs)
	return pairs, nil
}

// openPair loads an outgoing unit awaiting approval and its replacement,
// checking that both still point at each other.
func (s *Service) openPair(ctx context.Context, oldTag string) (*Pair, error) {
	old, err := s.load(ctx, oldTag)
	if err != nil {
		return nil, err
	}
	if !old.AwaitingRenewalApproval() || old.RenewalLinkedTag == "" {
		s.logger.Warn("renewal resolution rejected: no open renewal", "tag", old.Tag, "current_status", old.Status)
		return nil, internal.ErrInvalidTransition.WithMessage("equipment %s has no renewal awaiting approval", old.Tag)
	}

	replacement, err := s.load(ctx, old.RenewalLinkedTag)
	if err != nil {
		return nil, err
	}
	if replacement.Status != equipment.StatusInRenewal || replacement.RenewalLinkedTag != old.Tag {
		s.logger.Error("renewal pair is inconsistent",
			"old_tag", old.Tag,
			"new_tag", replacement.Tag,
			"new_status", replacement.Status,
			"new_link", replacement.RenewalLinkedTag)
		return nil, internal.NewIntegrityError(
			fmt.Sprintf("replacement %s is not reserved for %s", replacement.Tag, old.Tag),
			internal.ErrCodeValidationFailed)
	}
	return &Pair{Old: old, New: replacement}, nil
}

func (s *Service) load(ctx context.Context, tag string) (*equipment.Equipment, error) {
	tag = validation.NormalizeTag(tag)
	e, err := s.store.Get(ctx, tag)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeNotFound) {
			return nil, internal.ErrEquipmentNotFound.WithMessage("equipment %s not found", tag)
		}
		return nil, s.storageError("failed to load equipment", err, "tag", tag)
	}
	return e, nil
}

func (s *Service) movement(tag, action, detail string, session *auth.Session, at time.Time) *equipment.Movement {
	return &equipment.Movement{
		EquipmentTag: tag,
		Action:       action,
		Detail:       detail,
		Actor:        session.Actor(),
		CreatedAt:    at,
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.Warn("post-commit event handler failed", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) storageError(message string, err error, attrs ...any) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	s.logger.Error(message, append([]any{"error", err}, attrs...)...)
	return internal.NewInternalError(message, err)
}

func sortByDue(pairs []*Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Old.RenewalDueDate.Before(*pairs[j].Old.RenewalDueDate)
	})
}
