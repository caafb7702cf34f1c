package equipment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/catalog"
	"github.com/frahmantamala/equipment-inventory/internal/confirm"
	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
	"github.com/frahmantamala/equipment-inventory/internal/core/events"
)

// Service handles equipment lifecycle operations
type Service struct {
	store     Store
	catalog   CatalogReader
	gate      auth.Authorizer
	confirmer confirm.Confirmer
	events    events.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a new equipment service
func NewService(store Store, catalog CatalogReader, gate auth.Authorizer, confirmer confirm.Confirmer, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		catalog:   catalog,
		gate:      gate,
		confirmer: confirmer,
		events:    publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// Register adds a new unit to stock as Available.
func (s *Service) Register(ctx context.Context, session *auth.Session, dto RegisterDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapRegisterEquipment); err != nil {
		return nil, err
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Warn("equipment registration validation failed", "error", err, "tag", dto.Tag)
		return nil, err
	}
	if err := s.validateCatalogFields(ctx, dto.Type, dto.Brand, dto.Vendor); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, dto.Tag)
	switch {
	case err == nil && existing.Status == StatusReturnedToVendor:
		return nil, internal.NewIntegrityError(
			fmt.Sprintf("tag %s belongs to a unit returned to its vendor; reactivate it instead", dto.Tag),
			internal.ErrCodeTagRetired)
	case err == nil:
		return nil, internal.NewIntegrityError(fmt.Sprintf("tag %s is already registered", dto.Tag), internal.ErrCodeDuplicateTag)
	case !internal.IsType(err, internal.ErrorTypeNotFound):
		return nil, s.storageError("failed to look up tag", err, "tag", dto.Tag)
	}

	taken, err := s.store.SerialExists(ctx, dto.Serial, "")
	if err != nil {
		return nil, s.storageError("failed to check serial", err, "serial", dto.Serial)
	}
	if taken {
		return nil, internal.NewIntegrityError(fmt.Sprintf("serial %s is already registered", dto.Serial), internal.ErrCodeDuplicateSerial)
	}

	e := NewEquipment(dto, s.now())
	detail := fmt.Sprintf("New equipment registered: %s %s %s", e.Type, e.Brand, e.Model)

	err = s.store.Transaction(ctx, func(tx Store) error {
		if err := tx.Create(ctx, e); err != nil {
			return err
		}
		return tx.AppendMovement(ctx, s.movement(e.Tag, ActionRegistered, detail, session))
	})
	if err != nil {
		return nil, s.storageError("failed to register equipment", err, "tag", e.Tag)
	}

	s.logger.Info("equipment registered", "tag", e.Tag, "serial", e.Serial, "actor", session.Actor())
	s.publish(ctx, events.NewStatusChangedEvent(e.Tag, "", string(e.Status), ActionRegistered, session.Actor()))

	return e, nil
}

// Edit corrects descriptive fields of a unit that is in service.
func (s *Service) Edit(ctx context.Context, session *auth.Session, tag string, dto EditDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageEquipment); err != nil {
		return nil, err
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	e, err := s.load(ctx, tag)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusAvailable && e.Status != StatusAssigned && e.Status != StatusOnLoan {
		s.logger.Warn("cannot edit equipment in current status", "tag", e.Tag, "current_status", e.Status)
		return nil, internal.ErrInvalidTransition.WithMessage("equipment %s cannot be edited while it is %s", e.Tag, e.Status)
	}

	var changes []string
	updated := e.Clone()
	apply := func(field, current, next string, set func(string)) {
		if next != "" && next != current {
			changes = append(changes, fmt.Sprintf("%s: %s -> %s", field, current, next))
			set(next)
		}
	}
	apply("type", e.Type, dto.Type, func(v string) { updated.Type = v })
	apply("brand", e.Brand, dto.Brand, func(v string) { updated.Brand = v })
	apply("model", e.Model, dto.Model, func(v string) { updated.Model = v })
	apply("serial", e.Serial, dto.Serial, func(v string) { updated.Serial = v })

	if len(changes) == 0 {
		return nil, internal.NewValidationError("no changes requested", internal.ErrCodeValidationFailed)
	}

	if updated.Type != e.Type || updated.Brand != e.Brand {
		if err := s.validateCatalogFields(ctx, updated.Type, updated.Brand, ""); err != nil {
			return nil, err
		}
	}
	if updated.Serial != e.Serial {
		taken, err := s.store.SerialExists(ctx, updated.Serial, e.Tag)
		if err != nil {
			return nil, s.storageError("failed to check serial", err, "serial", updated.Serial)
		}
		if taken {
			return nil, internal.NewIntegrityError(fmt.Sprintf("serial %s is already registered", updated.Serial), internal.ErrCodeDuplicateSerial)
		}
	}

	if err := s.confirmer.Confirm(ctx, "tag", e.Tag); err != nil {
		return nil, err
	}

	updated.UpdatedAt = s.now()
	detail := fmt.Sprintf("%s. Reason: %s", strings.Join(changes, "; "), dto.Reason)
	if err := s.commit(ctx, updated, session, ActionEdited, detail); err != nil {
		return nil, err
	}

	s.logger.Info("equipment edited", "tag", e.Tag, "changes", len(changes), "actor", session.Actor())
	return updated, nil
}

// Delete removes a unit that was registered but never managed.
func (s *Service) Delete(ctx context.Context, session *auth.Session, tag string, dto DeleteDTO) error {
	if err := s.gate.Authorize(ctx, session, auth.CapDeleteEquipment); err != nil {
		return err
	}

	v := validation.NewValidator()
	v.Field("reason", dto.Reason).Required()
	if err := v.Validate(); err != nil {
		return err
	}

	e, err := s.load(ctx, tag)
	if err != nil {
		return err
	}

	count, err := s.store.CountMovements(ctx, e.Tag)
	if err != nil {
		return s.storageError("failed to count movements", err, "tag", e.Tag)
	}
	if count > 1 {
		s.logger.Warn("delete rejected: equipment has history", "tag", e.Tag, "movements", count)
		return internal.ErrHasHistory.WithMessage("equipment %s has %d movements and cannot be deleted", e.Tag, count)
	}

	if err := s.confirmer.Confirm(ctx, "tag", e.Tag); err != nil {
		return err
	}

	detail := fmt.Sprintf("Deleted %s %s %s (serial %s). Reason: %s", e.Type, e.Brand, e.Model, e.Serial, strings.TrimSpace(dto.Reason))
	err = s.store.Transaction(ctx, func(tx Store) error {
		if err := tx.Delete(ctx, e.Tag); err != nil {
			return err
		}
		return tx.AppendMovement(ctx, s.movement(e.Tag, ActionDeleted, detail, session))
	})
	if err != nil {
		return s.storageError("failed to delete equipment", err, "tag", e.Tag)
	}

	s.logger.Info("equipment deleted", "tag", e.Tag, "actor", session.Actor())
	s.publish(ctx, events.NewEquipmentDeletedEvent(e.Tag, session.Actor()))
	return nil
}

func (s *Service) Assign(ctx context.Context, session *auth.Session, tag string, dto AssignDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageEquipment); err != nil {
		return nil, err
	}
	if err := s.validateAssignee(ctx, &dto); err != nil {
		return nil, err
	}

	return s.transition(ctx, session, tag, EventAssign, ActionAssigned, func(e *Equipment) (string, error) {
		if err := e.Assign(dto.Name, dto.Email, dto.Observations, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Assigned to %s <%s>. Obs: %s", dto.Name, dto.Email, dto.Observations), nil
	})
}

func (s *Service) Loan(ctx context.Context, session *auth.Session, tag string, dto AssignDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageEquipment); err != nil {
		return nil, err
	}
	if err := s.validateAssignee(ctx, &dto); err != nil {
		return nil, err
	}

	v := validation.NewValidator()
	v.Field("due_date", dto.DueDate).Required().After(s.now())
	if err := v.Validate(); err != nil {
		return nil, err
	}
	due := validation.Day(*dto.DueDate)

	return s.transition(ctx, session, tag, EventLoan, ActionLoaned, func(e *Equipment) (string, error) {
		if err := e.Loan(dto.Name, dto.Email, due, dto.Observations, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Loaned to %s <%s>. Obs: %s. Return by: %s",
			dto.Name, dto.Email, dto.Observations, due.Format(validation.DateLayout)), nil
	})
}

func (s *Service) ReturnToInventory(ctx context.Context, session *auth.Session, tag string, dto ReturnDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageEquipment); err != nil {
		return nil, err
	}

	v := validation.NewValidator()
	v.Field("reason", dto.Reason).Required()
	if err := v.Validate(); err != nil {
		return nil, err
	}
	reason := validation.NormalizeObservation(dto.Reason, noObservations)

	return s.transition(ctx, session, tag, EventReturnToInventory, ActionReturned, func(e *Equipment) (string, error) {
		holder := e.AssignedName
		if err := e.ReturnToInventory(reason, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Returned by %s. Reason: %s", holder, reason), nil
	})
}

func (s *Service) StartMaintenance(ctx context.Context, session *auth.Session, tag string, dto MaintenanceDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageEquipment); err != nil {
		return nil, err
	}

	dto.Observations = strings.TrimSpace(dto.Observations)
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	obs := fmt.Sprintf("%s maintenance: %s", dto.Kind, validation.NormalizeObservation(dto.Observations, noObservations))

	return s.transition(ctx, session, tag, EventStartMaintenance, ActionMaintenanceStarted, func(e *Equipment) (string, error) {
		from := e.Status
		if err := e.StartMaintenance(obs, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s. Previous status: %s", obs, from), nil
	})
}

func (s *Service) CompleteMaintenance(ctx context.Context, session *auth.Session, tag string, dto CompleteMaintenanceDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManagePending); err != nil {
		return nil, err
	}

	v := validation.NewValidator()
	v.Field("observations", dto.Observations).Required()
	if err := v.Validate(); err != nil {
		return nil, err
	}
	obs := validation.NormalizeObservation(dto.Observations, noObservations)

	return s.transition(ctx, session, tag, EventCompleteMaintenance, ActionMaintenanceCompleted, func(e *Equipment) (string, error) {
		if err := e.CompleteMaintenance(obs, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Maintenance completed. Restored to %s. Obs: %s", e.Status, obs), nil
	})
}

// MarkNotRepairable closes a failed maintenance by queueing the unit for
// vendor return. A unit that was assigned before maintenance first gets its
// assignment retired, recorded as its own movement in the same transaction.
func (s *Service) MarkNotRepairable(ctx context.Context, session *auth.Session, tag string, dto NotRepairableDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManagePending); err != nil {
		return nil, err
	}

	dto.Normalize()
	dto.RetireNote = strings.TrimSpace(dto.RetireNote)
	if err := s.validateVendorReturn(dto.VendorReturnDTO); err != nil {
		return nil, err
	}

	e, err := s.load(ctx, tag)
	if err != nil {
		return nil, err
	}
	if err := e.Check(EventNotRepairable); err != nil {
		s.logger.Warn("invalid transition", "tag", e.Tag, "current_status", e.Status, "event", EventNotRepairable)
		return nil, err
	}

	retire := e.RequiresRetirement()
	if retire && dto.RetireNote == "" {
		return nil, internal.NewValidationFieldError("retire_note",
			fmt.Sprintf("equipment %s is still assigned to %s; retire the assignment first", e.Tag, e.AssignedName),
			internal.ErrCodeValidationFailed)
	}

	if err := s.confirmer.Confirm(ctx, "tag", e.Tag); err != nil {
		return nil, err
	}

	now := s.now()
	from := e.Status
	holder := e.AssignedName
	obs := s.vendorReturnObservations(dto.VendorReturnDTO)
	if err := e.MarkNotRepairable(dto.Reason, validation.Day(dto.Date), obs, now); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx Store) error {
		if retire {
			detail := fmt.Sprintf("Retired from %s. Reason: %s", holder, validation.NormalizeObservation(dto.RetireNote, noObservations))
			if err := tx.AppendMovement(ctx, s.movement(e.Tag, ActionReturned, detail, session)); err != nil {
				return err
			}
		}
		if err := tx.Update(ctx, e); err != nil {
			return err
		}
		detail := fmt.Sprintf("Not repairable. Reason: %s. Return date: %s. Obs: %s",
			dto.Reason, e.VendorReturnDate.Format(validation.DateLayout), obs)
		return tx.AppendMovement(ctx, s.movement(e.Tag, ActionVendorReturnStarted, detail, session))
	})
	if err != nil {
		return nil, s.storageError("failed to mark equipment not repairable", err, "tag", e.Tag)
	}

	s.logger.Info("equipment marked not repairable", "tag", e.Tag, "retired_assignment", retire, "actor", session.Actor())
	s.publish(ctx, events.NewStatusChangedEvent(e.Tag, string(from), string(e.Status), ActionVendorReturnStarted, session.Actor()))
	return e, nil
}

func (s *Service) StartVendorReturn(ctx context.Context, session *auth.Session, tag string, dto VendorReturnDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapVendorReturn); err != nil {
		return nil, err
	}

	dto.Normalize()
	if err := s.validateVendorReturn(dto); err != nil {
		return nil, err
	}
	obs := s.vendorReturnObservations(dto)
	date := validation.Day(dto.Date)

	return s.transition(ctx, session, tag, EventStartVendorReturn, ActionVendorReturnStarted, func(e *Equipment) (string, error) {
		if err := e.StartVendorReturn(dto.Reason, date, obs, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Reason: %s. Return date: %s. Obs: %s", dto.Reason, date.Format(validation.DateLayout), obs), nil
	})
}

func (s *Service) ConfirmVendorReturn(ctx context.Context, session *auth.Session, tag string, dto ResolutionDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManagePending); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	obs := validation.NormalizeObservation(dto.Observations, noObservations)

	return s.transition(ctx, session, tag, EventConfirmVendorReturn, ActionVendorReturnConfirmed, func(e *Equipment) (string, error) {
		reason := e.VendorReturnReason
		if err := e.ConfirmVendorReturn(obs, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Returned to vendor. Reason: %s. Obs: %s", reason, obs), nil
	})
}

func (s *Service) RejectVendorReturn(ctx context.Context, session *auth.Session, tag string, dto ResolutionDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManagePending); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	reason := validation.NormalizeObservation(dto.Observations, noObservations)

	return s.transition(ctx, session, tag, EventRejectVendorReturn, ActionVendorReturnRejected, func(e *Equipment) (string, error) {
		if err := e.RejectVendorReturn(reason, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Vendor return rejected. Reason: %s", reason), nil
	})
}

func (s *Service) Reactivate(ctx context.Context, session *auth.Session, tag string, dto ResolutionDTO) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManagePending); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	obs := validation.NormalizeObservation(dto.Observations, noObservations)

	return s.transition(ctx, session, tag, EventReactivate, ActionReactivated, func(e *Equipment) (string, error) {
		if err := e.Reactivate(obs, s.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Reactivated into stock. Obs: %s", obs), nil
	})
}

// CurrentStatus returns the status of tag.
func (s *Service) CurrentStatus(ctx context.Context, tag string) (Status, error) {
	e, err := s.load(ctx, tag)
	if err != nil {
		return "", err
	}
	return e.Status, nil
}

// IsDeletable reports whether tag has at most its registration movement.
func (s *Service) IsDeletable(ctx context.Context, tag string) (bool, error) {
	e, err := s.load(ctx, tag)
	if err != nil {
		return false, err
	}
	count, err := s.store.CountMovements(ctx, e.Tag)
	if err != nil {
		return false, s.storageError("failed to count movements", err, "tag", e.Tag)
	}
	return count <= 1, nil
}

func (s *Service) Get(ctx context.Context, session *auth.Session, tag string) (*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapViewInventory); err != nil {
		return nil, err
	}
	return s.load(ctx, tag)
}

func (s *Service) List(ctx context.Context, session *auth.Session, filter ListFilter) ([]*Equipment, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapViewInventory); err != nil {
		return nil, err
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.storageError("failed to list equipment", err)
	}
	return items, nil
}

func (s *Service) History(ctx context.Context, session *auth.Session, tag string) ([]*Movement, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapViewHistory); err != nil {
		return nil, err
	}
	tag = validation.NormalizeTag(tag)
	movements, err := s.store.Movements(ctx, tag)
	if err != nil {
		return nil, s.storageError("failed to load movements", err, "tag", tag)
	}
	if len(movements) == 0 {
		return nil, internal.ErrEquipmentNotFound.WithMessage("no movements recorded for %s", tag)
	}
	return movements, nil
}

// transition is the common path for single-record status changes: load,
// check the table, confirm, mutate, then persist the record and its
// movement in one transaction.
func (s *Service) transition(ctx context.Context, session *auth.Session, tag string, ev Event, action string, mutate func(e *Equipment) (string, error)) (*Equipment, error) {
	e, err := s.load(ctx, tag)
	if err != nil {
		return nil, err
	}

	if err := e.Check(ev); err != nil {
		s.logger.Warn("invalid transition", "tag", e.Tag, "current_status", e.Status, "event", ev)
		return nil, err
	}

	if err := s.confirmer.Confirm(ctx, "tag", e.Tag); err != nil {
		s.logger.Info("transition aborted at confirmation", "tag", e.Tag, "event", ev)
		return nil, err
	}

	from := e.Status
	detail, err := mutate(e)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, e, session, action, detail); err != nil {
		return nil, err
	}

	s.logger.Info("equipment status changed",
		"tag", e.Tag,
		"from", from,
		"to", e.Status,
		"event", ev,
		"actor", session.Actor())
	s.publish(ctx, events.NewStatusChangedEvent(e.Tag, string(from), string(e.Status), action, session.Actor()))

	return e, nil
}

func (s *Service) commit(ctx context.Context, e *Equipment, session *auth.Session, action, detail string) error {
	err := s.store.Transaction(ctx, func(tx Store) error {
		if err := tx.Update(ctx, e); err != nil {
			return err
		}
		return tx.AppendMovement(ctx, s.movement(e.Tag, action, detail, session))
	})
	if err != nil {
		return s.storageError("failed to save equipment", err, "tag", e.Tag, "action", action)
	}
	return nil
}

func (s *Service) load(ctx context.Context, tag string) (*Equipment, error) {
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

func (s *Service) movement(tag, action, detail string, session *auth.Session) *Movement {
	return &Movement{
		EquipmentTag: tag,
		Action:       action,
		Detail:       detail,
		Actor:        session.Actor(),
		CreatedAt:    s.now(),
	}
}

func (s *Service) validateAssignee(ctx context.Context, dto *AssignDTO) error {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return err
	}

	domains, err := s.catalog.ActiveValues(ctx, catalog.KindEmailDomain)
	if err != nil {
		return s.storageError("failed to load email domains", err)
	}
	v := validation.NewValidator()
	v.Field("email_domain", validation.EmailDomain(dto.Email)).OneOf(domains, internal.ErrCodeDomainNotAllowed)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (s *Service) validateCatalogFields(ctx context.Context, equipmentType, brand, vendor string) error {
	types, err := s.catalog.ActiveValues(ctx, catalog.KindEquipmentType)
	if err != nil {
		return s.storageError("failed to load equipment types", err)
	}
	brands, err := s.catalog.ActiveValues(ctx, catalog.KindBrand)
	if err != nil {
		return s.storageError("failed to load brands", err)
	}

	v := validation.NewValidator()
	v.Field("type", equipmentType).OneOf(types, internal.ErrCodeCatalogInactive)
	v.Field("brand", brand).OneOf(brands, internal.ErrCodeCatalogInactive)
	if vendor != "" {
		vendors, err := s.catalog.ActiveValues(ctx, catalog.KindVendor)
		if err != nil {
			return s.storageError("failed to load vendors", err)
		}
		v.Field("vendor", vendor).OneOf(vendors, internal.ErrCodeCatalogInactive)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (s *Service) validateVendorReturn(dto VendorReturnDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	v := validation.NewValidator()
	v.Field("date", dto.Date).Required()
	if !dto.Date.IsZero() && validation.Day(dto.Date).Before(validation.Day(s.now())) {
		v.Field("justification", dto.Justification).Required()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (s *Service) vendorReturnObservations(dto VendorReturnDTO) string {
	obs := validation.NormalizeObservation(dto.Observations, noObservations)
	if dto.Justification != "" {
		obs = fmt.Sprintf("%s. Late registration: %s", obs, dto.Justification)
	}
	return obs
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
