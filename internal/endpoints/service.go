// Package endpoints implements the v1 API handlers.
//
// Each file registers one entity family. Handlers follow one shape: gate the
// caller, run parameterized SQL (inside db.WithTx when more than one
// statement changes data), and project rows into camelCase JSON structs.
package endpoints

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/acccache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/job"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/storage"
)

// Enqueuer schedules background jobs. *job.Manager and *job.Enqueuer
// satisfy it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) error
	EnqueueTx(ctx context.Context, tx pgx.Tx, name string, payload any, opts ...job.EnqueueOption) error
}

// Service holds the dependencies shared by all handlers.
type Service struct {
	db       db.DB
	cache    *acccache.Cache
	storage  storage.Storage
	jobs     Enqueuer
	logger   *slog.Logger
	liveSite bool
}

type Option func(*Service)

// WithStorage enables image uploads.
func WithStorage(s storage.Storage) Option {
	return func(svc *Service) {
		svc.storage = s
	}
}

// WithJobs enables handlers that hand work to the job queue.
func WithJobs(e Enqueuer) Option {
	return func(svc *Service) {
		svc.jobs = e
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithLiveSite hides the automation handlers used by end-to-end tests.
func WithLiveSite(live bool) Option {
	return func(svc *Service) {
		svc.liveSite = live
	}
}

func New(pool db.DB, cache *acccache.Cache, opts ...Option) *Service {
	s := &Service{
		db:       pool,
		cache:    cache,
		logger:   logger.NewNope(),
		liveSite: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds every handler to reg.
func (s *Service) Register(reg *api.Registry) {
	s.registerUsers(reg)
	s.registerGames(reg)
	s.registerTowns(reg)
	s.registerPatterns(reg)
	s.registerTunes(reg)
	s.registerGuides(reg)
	s.registerPolls(reg)
	s.registerShops(reg)
	s.registerRules(reg)
	s.registerNotifications(reg)
	s.registerSupport(reg)
	s.registerFeatures(reg)
	s.registerUploads(reg)
	if !s.liveSite {
		s.registerAutomation(reg)
	}
}

// Saved is returned by handlers that create or update a row.
type Saved struct {
	ID int `json:"id"`
}

// UserRef is the public identity of a user embedded in other entities.
type UserRef struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// invalidate drops cache keys after a successful write. Failures are logged;
// the entries still expire with their TTL.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}

// owner returns the owner column of one row, or the given not-found error.
// query must select a single integer for $1.
func (s *Service) owner(ctx context.Context, query string, id int, notFound string) (int, error) {
	var ownerID int
	err := s.db.QueryRow(ctx, query, id).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, api.NewError(notFound)
	}
	if err != nil {
		return 0, fmt.Errorf("load owner: %w", err)
	}
	return ownerID, nil
}

// requireOwner fails with permission unless the caller owns the row.
func (s *Service) requireOwner(ctx context.Context, r *api.Request, query string, id int, notFound string) error {
	ownerID, err := s.owner(ctx, query, id, notFound)
	if err != nil {
		return err
	}
	if ownerID != r.UserID {
		return api.NewError(api.CodePermission)
	}
	return nil
}

// requireOwnerOr lets the owner or holders of permission through.
func (s *Service) requireOwnerOr(ctx context.Context, r *api.Request, query string, id int, notFound, permission string) error {
	ownerID, err := s.owner(ctx, query, id, notFound)
	if err != nil {
		return err
	}
	if ownerID == r.UserID {
		return nil
	}
	ok, err := r.HasPermission(ctx, permission)
	if err != nil {
		return err
	}
	if !ok {
		return api.NewError(api.CodePermission)
	}
	return nil
}
