package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/session"
)

// notificationRetention is how long notifications are kept.
const notificationRetention = "90 days"

type PurgeNotifications struct {
	db     db.Querier
	logger *slog.Logger
}

func NewPurgeNotifications(q db.Querier, log *slog.Logger) *PurgeNotifications {
	if log == nil {
		log = logger.NewNope()
	}
	return &PurgeNotifications{db: q, logger: log}
}

func (t *PurgeNotifications) Name() string     { return "purge_notifications" }
func (t *PurgeNotifications) Schedule() string { return "0 3 * * *" }

func (t *PurgeNotifications) Handle(ctx context.Context) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM notification WHERE created < now() - $1::interval`, notificationRetention)
	if err != nil {
		return fmt.Errorf("purge notifications: %w", err)
	}
	t.logger.InfoContext(ctx, "notifications purged", slog.Int64("count", tag.RowsAffected()))
	return nil
}

type PurgeSessions struct {
	store  session.Store
	logger *slog.Logger
}

func NewPurgeSessions(store session.Store, log *slog.Logger) *PurgeSessions {
	if log == nil {
		log = logger.NewNope()
	}
	return &PurgeSessions{store: store, logger: log}
}

func (t *PurgeSessions) Name() string     { return "purge_sessions" }
func (t *PurgeSessions) Schedule() string { return "0 * * * *" }

func (t *PurgeSessions) Handle(ctx context.Context) error {
	n, err := t.store.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	t.logger.InfoContext(ctx, "sessions purged", slog.Int64("count", n))
	return nil
}
