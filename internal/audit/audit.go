package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
)

// Entry is one row of the system log: administrative actions that are not
// tied to a piece of equipment.
type Entry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	Recent(ctx context.Context, limit int) ([]*Entry, error)
}

type Service struct {
	repo   Repository
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// Record appends an entry. An empty actor falls back to the one carried by
// ctx, then to "system".
func (s *Service) Record(ctx context.Context, action, detail, actor string) error {
	if actor == "" {
		actor = internal.ActorFromContext(ctx)
	}
	if actor == "" {
		actor = "system"
	}
	entry := &Entry{
		Action:    action,
		Detail:    detail,
		Actor:     actor,
		CreatedAt: s.now(),
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append system log entry", "error", err, "action", action, "actor", actor)
		return err
	}
	return nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.Recent(ctx, limit)
}
