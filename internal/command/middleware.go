package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/pkg/logger"
)

// Middleware wraps a command body.
type Middleware func(next auth.HandlerFunc) auth.HandlerFunc

// Chain applies mws so the first one is outermost.
func Chain(fn auth.HandlerFunc, mws ...Middleware) auth.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		fn = mws[i](fn)
	}
	return fn
}

// Recovery turns a panic inside a command into an internal error. It logs
// through the context logger, which carries the command and actor.
func Recovery() Middleware {
	return func(next auth.HandlerFunc) auth.HandlerFunc {
		return func(ctx context.Context, session *auth.Session) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.From(ctx).Error("panic recovered",
						"error", r,
						"stack", string(debug.Stack()))
					err = internal.NewInternalError("command failed unexpectedly", fmt.Errorf("panic: %v", r))
				}
			}()
			return next(ctx, session)
		}
	}
}

// Logging records each command with its outcome. Operator mistakes log at
// warn, everything else that fails at error.
func Logging() Middleware {
	return func(next auth.HandlerFunc) auth.HandlerFunc {
		return func(ctx context.Context, session *auth.Session) error {
			start := time.Now()
			err := next(ctx, session)

			level := slog.LevelInfo
			attrs := []any{"duration_ms", time.Since(start).Milliseconds()}
			if err != nil {
				level = slog.LevelError
				if appErr, ok := internal.IsAppError(err); ok && appErr.Type != internal.ErrorTypeInternal {
					level = slog.LevelWarn
				}
				attrs = append(attrs, "error", err)
			}
			logger.From(ctx).Log(ctx, level, "command finished", attrs...)
			return err
		}
	}
}
