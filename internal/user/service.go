package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/confirm"
)

type Repository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	RoleExists(ctx context.Context, role string) (bool, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, hash string, forceChange bool) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetRole(ctx context.Context, id int64, role string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, action, detail, actor string) error
}

type Service struct {
	repo       Repository
	gate       auth.Authorizer
	confirmer  confirm.Confirmer
	audit      AuditRecorder
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(repo Repository, gate auth.Authorizer, confirmer confirm.Confirmer, audit AuditRecorder, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		gate:       gate,
		confirmer:  confirmer,
		audit:      audit,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     logger,
	}
}

// Create opens an account with a temporary password the user must change at
// first login. The temporary password is returned once and never stored.
func (s *Service) Create(ctx context.Context, session *auth.Session, dto CreateDTO) (*User, string, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageUsers); err != nil {
		return nil, "", err
	}

	u, temp, err := s.create(ctx, dto)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user created", "username", u.Username, "role", u.Role, "actor", session.Actor())
	s.record(ctx, session.Actor(), "User created", fmt.Sprintf("%s (%s) with role %s", u.Username, u.Email, u.Role))
	return u, temp, nil
}

// Bootstrap creates the first administrator when the users table is empty.
// It reports false when any account already exists.
func (s *Service) Bootstrap(ctx context.Context, dto CreateDTO) (*User, string, bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count users", "error", err)
		return nil, "", false, internal.NewInternalError("failed to count users", err)
	}
	if count > 0 {
		return nil, "", false, nil
	}

	u, temp, err := s.create(ctx, dto)
	if err != nil {
		return nil, "", false, err
	}

	s.logger.Info("bootstrap administrator created", "username", u.Username)
	s.record(ctx, "system", "User created", fmt.Sprintf("bootstrap account %s", u.Username))
	return u, temp, true, nil
}

func (s *Service) ResetPassword(ctx context.Context, session *auth.Session, username string) (string, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageUsers); err != nil {
		return "", err
	}

	u, err := s.load(ctx, username)
	if err != nil {
		return "", err
	}
	if err := s.confirmer.Confirm(ctx, "username", u.Username); err != nil {
		return "", err
	}

	temp, hash, err := s.temporaryCredentials()
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, hash, true); err != nil {
		s.logger.Error("failed to reset password", "error", err, "username", u.Username)
		return "", internal.NewInternalError("failed to reset password", err)
	}

	s.logger.Info("password reset", "username", u.Username, "actor", session.Actor())
	s.record(ctx, session.Actor(), "Password reset", u.Username)
	return temp, nil
}

func (s *Service) SetActive(ctx context.Context, session *auth.Session, username string, active bool) (*User, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageUsers); err != nil {
		return nil, err
	}

	u, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}
	if !active && u.Username == session.Username {
		s.logger.Warn("refused to deactivate own account", "username", u.Username)
		return nil, internal.NewValidationFieldError("username", "you cannot deactivate your own account", internal.ErrCodeValidationFailed)
	}
	if u.IsActive == active {
		return u, nil
	}
	if err := s.confirmer.Confirm(ctx, "username", u.Username); err != nil {
		return nil, err
	}

	if err := s.repo.SetActive(ctx, u.ID, active); err != nil {
		s.logger.Error("failed to update user status", "error", err, "username", u.Username)
		return nil, internal.NewInternalError("failed to update user status", err)
	}
	u.IsActive = active

	action := "User deactivated"
	if active {
		action = "User activated"
	}
	s.logger.Info("user status changed", "username", u.Username, "active", active, "actor", session.Actor())
	s.record(ctx, session.Actor(), action, u.Username)
	return u, nil
}

func (s *Service) ChangeRole(ctx context.Context, session *auth.Session, username, role string) (*User, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageUsers); err != nil {
		return nil, err
	}

	role = strings.TrimSpace(role)
	if err := s.ensureRole(ctx, role); err != nil {
		return nil, err
	}

	u, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}
	if u.Role == role {
		return u, nil
	}
	if err := s.confirmer.Confirm(ctx, "username", u.Username); err != nil {
		return nil, err
	}

	if err := s.repo.SetRole(ctx, u.ID, role); err != nil {
		s.logger.Error("failed to change role", "error", err, "username", u.Username, "role", role)
		return nil, internal.NewInternalError("failed to change role", err)
	}

	previous := u.Role
	u.Role = role
	s.logger.Info("user role changed", "username", u.Username, "from", previous, "to", role, "actor", session.Actor())
	s.record(ctx, session.Actor(), "Role changed", fmt.Sprintf("%s: %s -> %s", u.Username, previous, role))
	return u, nil
}

// ChangePassword is available to every logged-in user for their own account.
func (s *Service) ChangePassword(ctx context.Context, session *auth.Session, dto ChangePasswordDTO) error {
	if session == nil {
		return internal.ErrNoSession
	}
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.load(ctx, session.Username)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(dto.Current, u.PasswordHash) {
		s.logger.Warn("password change rejected: wrong current password", "username", u.Username)
		return internal.ErrInvalidCredentials
	}
	if dto.Current == dto.New {
		return internal.NewValidationFieldError("new", "new password must differ from the current one", internal.ErrCodeWeakPassword)
	}

	hash, err := auth.HashPassword(dto.New, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, hash, false); err != nil {
		s.logger.Error("failed to change password", "error", err, "username", u.Username)
		return internal.NewInternalError("failed to change password", err)
	}

	s.logger.Info("password changed", "username", u.Username)
	s.record(ctx, u.Username, "Password changed", u.Username)
	return nil
}

func (s *Service) List(ctx context.Context, session *auth.Session) ([]*User, error) {
	if err := s.gate.Authorize(ctx, session, auth.CapManageUsers); err != nil {
		return nil, err
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (s *Service) create(ctx context.Context, dto CreateDTO) (*User, string, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Warn("user validation failed", "error", err, "username", dto.Username)
		return nil, "", err
	}
	if err := s.ensureRole(ctx, dto.Role); err != nil {
		return nil, "", err
	}

	_, err := s.repo.GetByUsername(ctx, dto.Username)
	if err == nil {
		return nil, "", internal.NewIntegrityError(fmt.Sprintf("username %s is already taken", dto.Username), internal.ErrCodeDuplicateUsername)
	}
	if !internal.IsType(err, internal.ErrorTypeNotFound) {
		s.logger.Error("failed to look up username", "error", err, "username", dto.Username)
		return nil, "", internal.NewInternalError("failed to look up username", err)
	}

	taken, err := s.repo.EmailExists(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to check email", "error", err, "email", dto.Email)
		return nil, "", internal.NewInternalError("failed to check email", err)
	}
	if taken {
		return nil, "", internal.NewIntegrityError(fmt.Sprintf("email %s is already registered", dto.Email), internal.ErrCodeDuplicateEmail)
	}

	temp, hash, err := s.temporaryCredentials()
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	u := &User{
		Username:            dto.Username,
		FullName:            dto.FullName,
		Email:               dto.Email,
		PasswordHash:        hash,
		Role:                dto.Role,
		IsActive:            true,
		ForcePasswordChange: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, "", err
		}
		s.logger.Error("failed to create user", "error", err, "username", u.Username)
		return nil, "", internal.NewInternalError("failed to create user", err)
	}
	return u, temp, nil
}

func (s *Service) temporaryCredentials() (string, string, error) {
	temp, err := auth.TemporaryPassword(s.now())
	if err != nil {
		return "", "", internal.NewInternalError("failed to generate temporary password", err)
	}
	hash, err := auth.HashPassword(temp, s.bcryptCost)
	if err != nil {
		return "", "", internal.NewInternalError("failed to hash password", err)
	}
	return temp, hash, nil
}

func (s *Service) ensureRole(ctx context.Context, role string) error {
	ok, err := s.repo.RoleExists(ctx, role)
	if err != nil {
		s.logger.Error("failed to check role", "error", err, "role", role)
		return internal.NewInternalError("failed to check role", err)
	}
	if !ok {
		return internal.ErrRoleNotFound.WithMessage("role %q does not exist", role)
	}
	return nil
}

func (s *Service) load(ctx context.Context, username string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeNotFound) {
			return nil, internal.ErrUserNotFound.WithMessage("user %s not found", username)
		}
		s.logger.Error("failed to load user", "error", err, "username", username)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return u, nil
}

func (s *Service) record(ctx context.Context, actor, action, detail string) {
	if err := s.audit.Record(ctx, action, detail, actor); err != nil {
		s.logger.Warn("system log write failed", "action", action, "error", err)
	}
}
