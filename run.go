package acc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	accdb "github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/job"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
)

// Serve runs the HTTP server until SIGINT or SIGTERM. With worker set the
// background tasks run in the same process; otherwise jobs are only
// enqueued for a separate `acc worker`.
func Serve(ctx context.Context, cfg Config, log *slog.Logger, worker bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	res, err := Open(ctx, cfg, log)
	if err != nil {
		return err
	}

	deps := Deps{
		DB:      res.Pool,
		Cache:   res.Cache,
		Storage: res.Storage,
		Checks:  res.Checks(),
		Logger:  log,
	}
	if worker {
		mgr, err := NewJobManager(cfg, res.Pool, log)
		if err != nil {
			return errors.Join(err, res.Close(ctx))
		}
		deps.Jobs, deps.Worker = mgr, mgr
	} else {
		enq, err := job.NewEnqueuer(res.Pool, log)
		if err != nil {
			return errors.Join(err, res.Close(ctx))
		}
		deps.Jobs = enq
	}

	app, err := NewApp(cfg, deps)
	if err != nil {
		return errors.Join(err, res.Close(ctx))
	}
	return app.Run(cfg.Addr,
		internal.Logger(log),
		internal.WithContext(ctx),
		internal.ShutdownTimeout(cfg.ShutdownTimeout),
		internal.ShutdownHook(res.Close),
		internal.ShutdownHook(logger.Flush),
	)
}

// Work runs only the background tasks until SIGINT or SIGTERM.
func Work(ctx context.Context, cfg Config, log *slog.Logger) error {
	res, err := Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = res.Close(context.WithoutCancel(ctx)) }()

	mgr, err := NewJobManager(cfg, res.Pool, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	log.Info("stopping worker")
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	return errors.Join(mgr.Stop(stopCtx), logger.Flush(stopCtx))
}

// Migrate applies the schema migrations and the job queue's own tables.
func Migrate(ctx context.Context, cfg Config, log *slog.Logger) error {
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, accdb.Migrations(), cfg.DB.MigrationsTable, log); err != nil {
		return fmt.Errorf("acc: schema: %w", err)
	}
	if err := job.Migrate(ctx, pool, log); err != nil {
		return fmt.Errorf("acc: job queue: %w", err)
	}
	log.InfoContext(ctx, "migrations applied")
	return nil
}
