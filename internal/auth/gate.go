package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
)

// Authorizer is the PermissionGate as seen by services.
type Authorizer interface {
	Authorize(ctx context.Context, session *Session, capability Capability) error
}

// HandlerFunc is a command body executed on behalf of a session.
type HandlerFunc func(ctx context.Context, session *Session) error

type Gate struct {
	checker PermissionChecker
	now     func() time.Time
	logger  *slog.Logger
}

func NewGate(checker PermissionChecker, logger *slog.Logger) *Gate {
	return &Gate{
		checker: checker,
		now:     time.Now,
		logger:  logger,
	}
}

// Authorize is fail-closed: a missing or expired session and an absent
// capability all deny.
func (g *Gate) Authorize(ctx context.Context, session *Session, capability Capability) error {
	if session == nil {
		g.logger.WarnContext(ctx, "authorization check failed: no session", "capability", capability)
		return internal.ErrNoSession
	}

	if session.Expired(g.now()) {
		g.logger.WarnContext(ctx, "authorization check failed: session expired",
			"username", session.Username,
			"expired_at", session.ExpiresAt)
		return internal.ErrTokenExpired
	}

	if !g.checker.HasCapability(session.Capabilities, capability) {
		g.logger.WarnContext(ctx, "access denied: insufficient permissions",
			"username", session.Username,
			"role", session.Role,
			"required_capability", capability)
		return internal.NewPermissionDeniedError(session.Role, string(capability))
	}

	return nil
}

// Guard wraps next so it only runs when the session holds capability.
func (g *Gate) Guard(capability Capability, next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, session *Session) error {
		if err := g.Authorize(ctx, session, capability); err != nil {
			return err
		}
		return next(ctx, session)
	}
}
