package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/mailer"
)

const (
	SendSupportEmailName = "send_support_email"

	supportEmailTemplate = "support_email.md"
)

// SupportEmailPayload identifies a support_email row.
type SupportEmailPayload struct {
	ID int `json:"id"`
}

// Mailer sends templated email. *mailer.Mailer satisfies it.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// SendSupportEmail delivers a recorded support email once. Rows already
// marked sent are skipped so retries never send twice.
type SendSupportEmail struct {
	db     db.Querier
	mail   Mailer
	logger *slog.Logger
}

func NewSendSupportEmail(q db.Querier, mail Mailer, log *slog.Logger) *SendSupportEmail {
	if log == nil {
		log = logger.NewNope()
	}
	return &SendSupportEmail{db: q, mail: mail, logger: log}
}

func (t *SendSupportEmail) Name() string { return SendSupportEmailName }

func (t *SendSupportEmail) Handle(ctx context.Context, p SupportEmailPayload) error {
	var (
		to, subject, body, username string
		sent                        bool
	)
	err := t.db.QueryRow(ctx, `
		SELECT se.to_email, se.subject, se.body, se.sent IS NOT NULL, u.username
		FROM support_email se
		JOIN users u ON u.id = se.to_user_id
		WHERE se.id = $1`, p.ID).Scan(&to, &subject, &body, &sent, &username)
	if errors.Is(err, pgx.ErrNoRows) {
		t.logger.WarnContext(ctx, "support email not found", slog.Int("id", p.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load support email %d: %w", p.ID, err)
	}
	if sent {
		return nil
	}

	err = t.mail.Send(ctx, mailer.Message{
		To:       to,
		Template: supportEmailTemplate,
		Subject:  subject,
		Data: map[string]any{
			"Username": username,
			"Body":     body,
		},
		Tags: map[string]string{"category": "support_email"},
	})
	if err != nil {
		return fmt.Errorf("send support email %d: %w", p.ID, err)
	}

	if _, err := t.db.Exec(ctx, `UPDATE support_email SET sent = now() WHERE id = $1`, p.ID); err != nil {
		return fmt.Errorf("mark support email %d sent: %w", p.ID, err)
	}
	t.logger.InfoContext(ctx, "support email sent", slog.Int("id", p.ID))
	return nil
}
