package acc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/acccache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/endpoints"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/locales"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/sessionstore"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/middlewares"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/cookie"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/health"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/i18n"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/job"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/redis"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/session"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/storage"
)

// NewLogger builds the process logger. Records carry the request and user
// ids when logged with a request context.
func NewLogger(cfg Config) *slog.Logger {
	return logger.New(cfg.Log,
		middlewares.RequestIDExtractor(),
		middlewares.UserIDExtractor(),
	)
}

// Resources are the connections shared by every command.
type Resources struct {
	Pool *pgxpool.Pool

	// Redis is nil without REDIS_URL.
	Redis goredis.UniversalClient

	Cache *acccache.Cache

	// Storage is nil without AWS_BUCKET.
	Storage storage.Storage

	Logger *slog.Logger
}

// Open connects to PostgreSQL and whichever optional backends are
// configured. Close releases everything Open acquired.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Resources, error) {
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	res := &Resources{Pool: pool, Logger: log}

	if cfg.Redis.Enabled() {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, err
		}
		res.Redis = client
		res.Cache = acccache.NewRedis(client, acccache.WithLogger(log))
	} else {
		log.WarnContext(ctx, "REDIS_URL not set, caching in process memory")
		res.Cache = acccache.NewMemory(acccache.WithLogger(log))
	}

	if cfg.Storage.Enabled() {
		s3, err := storage.New(cfg.Storage)
		if err != nil {
			_ = res.Close(ctx)
			return nil, fmt.Errorf("acc: open storage: %w", err)
		}
		res.Storage = s3
	}
	return res, nil
}

// Close releases the cache, Redis and the pool, in that order.
func (r *Resources) Close(ctx context.Context) error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Redis != nil {
		errs = append(errs, redis.Shutdown(r.Redis)(ctx))
	}
	errs = append(errs, db.Shutdown(r.Pool)(ctx))
	return errors.Join(errs...)
}

// Checks are the readiness probes for the open backends.
func (r *Resources) Checks() health.Checks {
	checks := health.Checks{"postgres": db.Healthcheck(r.Pool)}
	if r.Redis != nil {
		checks["redis"] = redis.Healthcheck(r.Redis)
	}
	return checks
}

// Deps are the collaborators NewApp wires into the HTTP stack. DB and Cache
// are required; the rest switch features on when set.
type Deps struct {
	DB    db.DB
	Cache *acccache.Cache

	// Sessions defaults to the PostgreSQL session table on DB.
	Sessions session.Store

	Storage storage.Storage
	Jobs    endpoints.Enqueuer

	// Worker is started and stopped with the server.
	Worker *job.Manager

	Checks health.Checks
	Logger *slog.Logger
}

// NewApp builds the HTTP application: the v1 API under /api/v1, the admin
// routes, sessions, translated errors and health probes.
func NewApp(cfg Config, deps Deps) (*internal.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNope()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = sessionstore.New(deps.DB)
	}

	bundle, err := i18n.New(i18n.WithYAMLDir(locales.FS()))
	if err != nil {
		return nil, fmt.Errorf("acc: load locales: %w", err)
	}
	cookies, err := cookie.New(cfg.CookieSecret,
		cookie.WithSecure(cfg.CookieSecure),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)
	if err != nil {
		return nil, fmt.Errorf("acc: cookie manager: %w", err)
	}

	svcOpts := []endpoints.Option{
		endpoints.WithLogger(log),
		endpoints.WithLiveSite(cfg.LiveSite),
	}
	if deps.Storage != nil {
		svcOpts = append(svcOpts, endpoints.WithStorage(deps.Storage))
	}
	if deps.Jobs != nil {
		svcOpts = append(svcOpts, endpoints.WithJobs(deps.Jobs))
	}
	svc := endpoints.New(deps.DB, deps.Cache, svcOpts...)

	reg := api.NewRegistry()
	svc.Register(reg)
	dispatcher := api.NewDispatcher(reg, deps.DB, api.WithLogger(log))

	healthOpts := make([]internal.HealthOption, 0, len(deps.Checks)+1)
	for name, check := range deps.Checks {
		healthOpts = append(healthOpts, internal.WithReadinessCheck(name, check))
	}
	if deps.Worker != nil {
		healthOpts = append(healthOpts, internal.WithReadinessCheck("jobs", job.Healthcheck(deps.Worker)))
	}

	corsOpts := []middlewares.CORSOption{middlewares.WithAllowCredentials()}
	if len(cfg.AllowOrigins) > 0 {
		corsOpts = append(corsOpts, middlewares.WithAllowOrigins(cfg.AllowOrigins...))
	}

	opts := []internal.Option{
		internal.WithLogger(log),
		internal.WithCookies(cookies),
		internal.WithSession(sessions, internal.WithSessionTTL(cfg.SessionTTL)),
		internal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.CORS(corsOpts...),
			middlewares.I18n(bundle),
			middlewares.LoadUser(),
			middlewares.Timeout(cfg.RequestTimeout),
		),
		internal.WithErrorHandler(api.ErrorHandler),
		internal.WithNotFoundHandler(notFound),
		internal.WithHealthChecks(healthOpts...),
		internal.WithHandlers(
			api.NewHandler(dispatcher),
			endpoints.NewAdmin(svc, dispatcher),
		),
	}
	if deps.Worker != nil {
		opts = append(opts, internal.WithJobWorker(deps.Worker))
	}
	return internal.New(opts...), nil
}

func notFound(internal.Context) error {
	return api.NewError(api.CodeNoSuchMethod)
}
