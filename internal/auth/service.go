package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
)

type Repository interface {
	GetCredentials(ctx context.Context, username string) (*Credentials, error)
	GetCapabilities(ctx context.Context, role string) ([]Capability, error)
	RecordLogin(ctx context.Context, userID int64, at time.Time) error
}

// AuditRecorder writes to the system log.
type AuditRecorder interface {
	Record(ctx context.Context, action, detail, actor string) error
}

// Service is the main auth service with dependencies
type Service struct {
	repo   Repository
	tokens *TokenIssuer
	store  SessionStore
	audit  AuditRecorder
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new auth service
func NewService(repo Repository, tokens *TokenIssuer, store SessionStore, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		store:  store,
		audit:  audit,
		now:    time.Now,
		logger: logger,
	}
}

// Login verifies credentials, opens a session and persists its token.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*Session, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	creds, err := s.repo.GetCredentials(ctx, dto.Username)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeNotFound) {
			s.logger.Warn("login failed: unknown username", "username", dto.Username)
			return nil, internal.ErrInvalidCredentials
		}
		s.logger.Error("failed to load credentials", "error", err, "username", dto.Username)
		return nil, internal.NewInternalError("failed to load credentials", err)
	}

	if !creds.IsActive {
		s.logger.Warn("login failed: user inactive", "username", dto.Username)
		return nil, internal.ErrUserInactive
	}

	if !VerifyPassword(dto.Password, creds.PasswordHash) {
		s.logger.Warn("login failed: wrong password", "username", dto.Username)
		return nil, internal.ErrInvalidCredentials
	}

	session, err := s.buildSession(ctx, creds)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		s.logger.Error("failed to sign session token", "error", err, "username", creds.Username)
		return nil, internal.NewInternalError("failed to sign session token", err)
	}

	if err := s.store.Save(token); err != nil {
		s.logger.Error("failed to persist session", "error", err, "username", creds.Username)
		return nil, internal.NewInternalError("failed to persist session", err)
	}

	if err := s.repo.RecordLogin(ctx, creds.UserID, s.now()); err != nil {
		s.logger.Warn("failed to record last login", "error", err, "username", creds.Username)
	}
	if err := s.audit.Record(ctx, "Login", "Session opened", creds.Username); err != nil {
		s.logger.Warn("failed to write login to system log", "error", err)
	}

	s.logger.Info("session opened",
		"username", creds.Username,
		"role", creds.Role,
		"session_id", session.ID,
		"expires_at", session.ExpiresAt)

	return session, nil
}

// Resume rebuilds the session from the persisted token. The user row is
// re-read so deactivation and role changes apply to open sessions.
func (s *Service) Resume(ctx context.Context) (*Session, error) {
	token, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Warn("stored session rejected", "error", err)
		return nil, err
	}

	creds, err := s.repo.GetCredentials(ctx, claims.Username)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewInternalError("failed to load session user", err)
	}
	if !creds.IsActive {
		s.logger.Warn("session rejected: user inactive", "username", creds.Username)
		return nil, internal.ErrUserInactive
	}

	session, err := s.buildSession(ctx, creds)
	if err != nil {
		return nil, err
	}
	session.ID = claims.ID
	session.IssuedAt = claims.IssuedAt.Time
	session.ExpiresAt = claims.ExpiresAt.Time

	return session, nil
}

// Logout destroys the persisted session. It is not an error to log out twice.
func (s *Service) Logout(ctx context.Context, session *Session) error {
	if err := s.store.Clear(); err != nil {
		return internal.NewInternalError("failed to clear session", err)
	}
	if session != nil {
		if err := s.audit.Record(ctx, "Logout", "Session closed", session.Username); err != nil {
			s.logger.Warn("failed to write logout to system log", "error", err)
		}
		s.logger.Info("session closed", "username", session.Username, "session_id", session.ID)
	}
	return nil
}

func (s *Service) buildSession(ctx context.Context, creds *Credentials) (*Session, error) {
	caps, err := s.repo.GetCapabilities(ctx, creds.Role)
	if err != nil {
		s.logger.Error("failed to load role capabilities", "error", err, "role", creds.Role)
		return nil, internal.NewInternalError("failed to load role capabilities", err)
	}

	return &Session{
		UserID:              creds.UserID,
		Username:            creds.Username,
		FullName:            creds.FullName,
		Role:                creds.Role,
		Capabilities:        caps,
		ForcePasswordChange: creds.ForcePasswordChange,
	}, nil
}
