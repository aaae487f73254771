package acc

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/jobs"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/sessionstore"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/job"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/mailer"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/mailer/resend"
)

// NewMailer renders the embedded email templates and delivers through
// Resend, or only logs the rendered email when no API key is set.
func NewMailer(cfg Config, log *slog.Logger) *mailer.Mailer {
	var sender mailer.Sender = logSender{log: log}
	if cfg.Resend.Enabled() {
		sender = resend.New(cfg.Resend)
	}
	return mailer.New(sender, mailer.NewRenderer(jobs.Templates()), cfg.Mail)
}

// NewJobManager registers the background tasks on pool.
func NewJobManager(cfg Config, pool *pgxpool.Pool, log *slog.Logger) (*job.Manager, error) {
	return job.NewManager(pool,
		job.WithLogger(log),
		job.WithMaxWorkers(cfg.JobWorkers),
		job.WithTask(jobs.NewSendSupportEmail(pool, NewMailer(cfg, log), log)),
		job.WithScheduledTask(jobs.NewPurgeNotifications(pool, log)),
		job.WithScheduledTask(jobs.NewPurgeSessions(sessionstore.New(pool), log)),
	)
}

type logSender struct {
	log *slog.Logger
}

func (s logSender) Send(ctx context.Context, email *mailer.Email) error {
	s.log.InfoContext(ctx, "email not delivered, RESEND_API_KEY not set",
		slog.String("to", strings.Join(email.To, ", ")),
		slog.String("subject", email.Subject),
	)
	return nil
}
