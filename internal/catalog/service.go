package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/confirm"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context, kind string) ([]*Parameter, error)
	GetByID(ctx context.Context, id int64) (*Parameter, error)
	GetByValue(ctx context.Context, kind, value string) (*Parameter, error)
	Create(ctx context.Context, p *Parameter) error
	Update(ctx context.Context, p *Parameter) error
	Delete(ctx context.Context, id int64) error
}

// InUseChecker reports whether equipment still references a value.
type InUseChecker interface {
	IsCatalogValueInUse(ctx context.Context, kind, value string) (bool, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, action, detail, actor string) error
}

type Service struct {
	repo      RepositoryAPI
	inUse     InUseChecker
	gate      auth.Authorizer
	confirmer confirm.Confirmer
	audit     AuditRecorder
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, inUse InUseChecker, gate auth.Authorizer, confirmer confirm.Confirmer, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		inUse:     inUse,
		gate:      gate,
		confirmer: confirmer,
		audit:     audit,
		now:       time.Now,
		logger:    logger,
	}
}

// ActiveValues lists the active values of kind. It needs no session since
// it only feeds validation inside already-authorized operations.
func (s *Service) ActiveValues(ctx context.Context, kind string) ([]string, error) {
	params, err := s.repo.GetAll(ctx, kind)
	if err != nil {
		s.logger.Error("failed to get catalog values from repository", "error", err, "kind", kind)
		return nil, err
	}

	var values []string
	for _, p := range params {
		if p.IsActive {
			values = append(values, p.Value)
		}
	}
	return values, nil
}

func (s *Service) List(ctx context.Context, session *auth.Session, kind string) ([]*Parameter, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapConfigureSystem); err != nil {
		return nil, err
	}

	params, err := s.repo.GetAll(ctx, strings.ToLower(strings.TrimSpace(kind)))
	if err != nil {
		s.logger.Error("failed to get catalog values from repository", "error", err, "kind", kind)
		return nil, internal.NewInternalError("failed to list catalog values", err)
	}

	s.logger.Info("retrieved catalog values", "kind", kind, "count", len(params))
	return params, nil
}

func (s *Service) Add(ctx context.Context, session *auth.Session, dto AddDTO) (*Parameter, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapConfigureSystem); err != nil {
		return nil, err
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Warn("catalog value validation failed", "error", err, "kind", dto.Kind)
		return nil, err
	}

	existing, err := s.repo.GetByValue(ctx, dto.Kind, dto.Value)
	if err != nil && !internal.IsType(err, internal.ErrorTypeNotFound) {
		return nil, internal.NewInternalError("failed to check catalog value", err)
	}
	if existing != nil {
		state := "active"
		if !existing.IsActive {
			state = "inactive; activate it instead"
		}
		return nil, internal.NewIntegrityError(
			fmt.Sprintf("%s %q already exists (%s)", dto.Kind, existing.Value, state),
			internal.ErrCodeDuplicateCatalog)
	}

	p := NewParameter(dto.Kind, dto.Value, s.now())
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create catalog value", "error", err, "kind", p.Kind, "value", p.Value)
		return nil, internal.NewInternalError("failed to create catalog value", err)
	}

	s.logger.Info("catalog value added", "kind", p.Kind, "value", p.Value, "actor", session.Actor())
	s.record(ctx, session, "Catalog value added", fmt.Sprintf("%s: %s", p.Kind, p.Value))
	return p, nil
}

func (s *Service) Activate(ctx context.Context, session *auth.Session, id int64) (*Parameter, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapConfigureSystem); err != nil {
		return nil, err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsActive {
		return p, nil
	}

	p.Activate()
	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("failed to activate catalog value", "error", err, "id", id)
		return nil, internal.NewInternalError("failed to activate catalog value", err)
	}

	s.logger.Info("catalog value activated", "kind", p.Kind, "value", p.Value, "actor", session.Actor())
	s.record(ctx, session, "Catalog value activated", fmt.Sprintf("%s: %s", p.Kind, p.Value))
	return p, nil
}

// Deactivate hides a value from new registrations and assignments. Values
// still referenced by equipment in the company cannot be deactivated.
func (s *Service) Deactivate(ctx context.Context, session *auth.Session, id int64) (*Parameter, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapConfigureSystem); err != nil {
		return nil, err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return p, nil
	}
	if err := s.ensureUnused(ctx, p); err != nil {
		return nil, err
	}
	if err := s.confirmer.Confirm(ctx, "value", p.Value); err != nil {
		return nil, err
	}

	p.Deactivate()
	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("failed to deactivate catalog value", "error", err, "id", id)
		return nil, internal.NewInternalError("failed to deactivate catalog value", err)
	}

	s.logger.Info("catalog value deactivated", "kind", p.Kind, "value", p.Value, "actor", session.Actor())
	s.record(ctx, session, "Catalog value deactivated", fmt.Sprintf("%s: %s", p.Kind, p.Value))
	return p, nil
}

func (s *Service) Delete(ctx context.Context, session *auth.Session, id int64) error {
	if err := s.gate.Authorize(ctx, session, auth.CapConfigureSystem); err != nil {
		return err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureUnused(ctx, p); err != nil {
		return err
	}
	if err := s.confirmer.Confirm(ctx, "value", p.Value); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.ID); err != nil {
		s.logger.Error("failed to delete catalog value", "error", err, "id", id)
		return internal.NewInternalError("failed to delete catalog value", err)
	}

	s.logger.Info("catalog value deleted", "kind", p.Kind, "value", p.Value, "actor", session.Actor())
	s.record(ctx, session, "Catalog value deleted", fmt.Sprintf("%s: %s", p.Kind, p.Value))
	return nil
}

// SeedDefaults inserts any of values that are missing. Existing rows keep
// their active flag.
func (s *Service) SeedDefaults(ctx context.Context, values map[string][]string) (int, error) {
	created := 0
	for _, kind := range Kinds() {
		for _, value := range values[kind] {
			existing, err := s.repo.GetByValue(ctx, kind, value)
			if err != nil && !internal.IsType(err, internal.ErrorTypeNotFound) {
				return created, err
			}
			if existing != nil {
				continue
			}
			if err := s.repo.Create(ctx, NewParameter(kind, value, s.now())); err != nil {
				return created, err
			}
			created++
		}
	}
	s.logger.Info("catalog defaults seeded", "created", created)
	return created, nil
}

func (s *Service) ensureUnused(ctx context.Context, p *Parameter) error {
	used, err := s.inUse.IsCatalogValueInUse(ctx, p.Kind, p.Value)
	if err != nil {
		s.logger.Error("failed to check catalog value usage", "error", err, "kind", p.Kind, "value", p.Value)
		return internal.NewInternalError("failed to check catalog value usage", err)
	}
	if used {
		s.logger.Warn("catalog value still in use", "kind", p.Kind, "value", p.Value)
		return internal.ErrInUse.WithMessage("%s %q is referenced by equipment still in the company", p.Kind, p.Value)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*Parameter, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeNotFound) {
			return nil, internal.ErrCatalogNotFound.WithMessage("catalog value %s not found", strconv.FormatInt(id, 10))
		}
		s.logger.Error("failed to load catalog value", "error", err, "id", id)
		return nil, internal.NewInternalError("failed to load catalog value", err)
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, session *auth.Session, action, detail string) {
	if err := s.audit.Record(ctx, action, detail, session.Actor()); err != nil {
		s.logger.Warn("system log write failed", "action", action, "error", err)
	}
}
