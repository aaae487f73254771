package endpoints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/jobs"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/sanitizer"
)

// ErrJobsDisabled is returned by handlers that need the job queue when the
// service was built without one.
var ErrJobsDisabled = errors.New("endpoints: job queue not configured")

const supportStaffPermission = "process-support-tickets"

type SupportTicket struct {
	Created  time.Time        `json:"created"`
	User     UserRef          `json:"user"`
	Title    string           `json:"title"`
	Status   string           `json:"status"`
	Messages []SupportMessage `json:"messages"`
	ID       int              `json:"id"`
}

type SupportMessage struct {
	Created   time.Time `json:"created"`
	User      UserRef   `json:"user"`
	Message   string    `json:"message"`
	ID        int       `json:"id"`
	StaffOnly bool      `json:"staffOnly"`
}

const supportTicketOwnerQuery = `SELECT user_id FROM support_ticket WHERE id = $1`

func (s *Service) registerSupport(reg *api.Registry) {
	reg.Register("v1/support_ticket", api.Schema{
		"id": {Type: api.SupportTicketID, Required: true},
	}, api.Handle(s.supportTicket))

	reg.Register("v1/support_ticket/save", api.Schema{
		"title":   {Type: api.String, Required: true, Length: 100},
		"message": {Type: api.String, Required: true, Length: 4000},
	}, api.Handle(s.saveSupportTicket), api.Action())

	reg.Register("v1/support_ticket/message/save", api.Schema{
		"id":        {Type: api.SupportTicketID, Required: true},
		"message":   {Type: api.String, Required: true, Length: 4000},
		"staffOnly": {Type: api.Boolean},
	}, api.Handle(s.saveSupportMessage), api.Action())

	reg.Register("v1/support_email/send", api.Schema{
		"userId":  {Type: api.UserID, Required: true},
		"subject": {Type: api.String, Required: true, Length: 200},
		"body":    {Type: api.String, Required: true, Length: 10000},
	}, api.Handle(s.sendSupportEmail), api.Action())
}

// supportAccess lets the ticket owner or support staff through and reports
// whether the caller is staff.
func (s *Service) supportAccess(ctx context.Context, r *api.Request, id int) (bool, error) {
	if err := r.RequireUser(); err != nil {
		return false, err
	}
	ownerID, err := s.owner(ctx, supportTicketOwnerQuery, id, "no-such-support-ticket")
	if err != nil {
		return false, err
	}
	staff, err := r.HasPermission(ctx, supportStaffPermission)
	if err != nil {
		return false, err
	}
	if !staff && ownerID != r.UserID {
		return false, api.NewError(api.CodePermission)
	}
	return staff, nil
}

// supportTicket hides staff-only messages from non-staff callers.
func (s *Service) supportTicket(ctx context.Context, r *api.Request, p api.Params) (*SupportTicket, error) {
	id := p.Int("id")
	staff, err := s.supportAccess(ctx, r, id)
	if err != nil {
		return nil, err
	}

	var (
		ticket   SupportTicket
		messages = []SupportMessage{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.db.QueryRow(gctx, `
			SELECT t.id, t.title, t.status, t.created, u.id, u.username
			FROM support_ticket t
			JOIN users u ON u.id = t.user_id
			WHERE t.id = $1`, id,
		).Scan(&ticket.ID, &ticket.Title, &ticket.Status, &ticket.Created, &ticket.User.ID, &ticket.User.Username)
		if err != nil {
			return fmt.Errorf("load support ticket: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(gctx, `
			SELECT m.id, m.message, m.staff_only, m.created, u.id, u.username
			FROM support_ticket_message m
			JOIN users u ON u.id = m.user_id
			WHERE m.support_ticket_id = $1 AND ($2 OR NOT m.staff_only)
			ORDER BY m.created, m.id`, id, staff)
		if err != nil {
			return fmt.Errorf("load support messages: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var m SupportMessage
			if err := rows.Scan(&m.ID, &m.Message, &m.StaffOnly, &m.Created, &m.User.ID, &m.User.Username); err != nil {
				return fmt.Errorf("scan support message: %w", err)
			}
			messages = append(messages, m)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ticket.Messages = messages
	return &ticket, nil
}

func (s *Service) saveSupportTicket(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequireUser(); err != nil {
		return Saved{}, err
	}
	title := sanitizer.StripHTML(p.String("title"))
	message := sanitizer.SanitizeHTML(p.String("message"))
	if title == "" {
		return Saved{}, api.ParamError(api.CodeBadFormat, "title")
	}

	var saved Saved
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO support_ticket (user_id, title) VALUES ($1, $2)
			RETURNING id`, r.UserID, title).Scan(&saved.ID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO support_ticket_message (support_ticket_id, user_id, message)
			VALUES ($1, $2, $3)`, saved.ID, r.UserID, message)
		return err
	})
	if err != nil {
		return Saved{}, fmt.Errorf("create support ticket: %w", err)
	}
	return saved, nil
}

// saveSupportMessage appends to a ticket. Public staff replies notify the
// ticket owner.
func (s *Service) saveSupportMessage(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	id := p.Int("id")
	staff, err := s.supportAccess(ctx, r, id)
	if err != nil {
		return Saved{}, err
	}
	staffOnly := p.Bool("staffOnly")
	if staffOnly && !staff {
		return Saved{}, api.NewError(api.CodePermission)
	}

	var (
		saved   Saved
		ownerID int
	)
	err = s.db.QueryRow(ctx, `
		WITH msg AS (
			INSERT INTO support_ticket_message (support_ticket_id, user_id, message, staff_only)
			VALUES ($1, $2, $3, $4)
			RETURNING id, support_ticket_id
		)
		SELECT msg.id, t.user_id FROM msg JOIN support_ticket t ON t.id = msg.support_ticket_id`,
		id, r.UserID, sanitizer.SanitizeHTML(p.String("message")), staffOnly,
	).Scan(&saved.ID, &ownerID)
	if err != nil {
		return Saved{}, fmt.Errorf("create support message: %w", err)
	}

	if !staffOnly && ownerID != r.UserID {
		_, err := r.Query(ctx, "v1/notification/create", map[string]any{
			"userId":      ownerID,
			"type":        NotifySupportTicket,
			"referenceId": id,
		})
		if err != nil {
			return Saved{}, err
		}
	}
	return saved, nil
}

// sendSupportEmail records the email and queues delivery in one transaction.
func (s *Service) sendSupportEmail(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequirePermission(ctx, "process-support-emails"); err != nil {
		return Saved{}, err
	}
	if s.jobs == nil {
		return Saved{}, ErrJobsDisabled
	}
	toUserID := p.Int("userId")

	var email string
	if err := s.db.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, toUserID).Scan(&email); err != nil {
		return Saved{}, fmt.Errorf("load recipient: %w", err)
	}
	if email == "" {
		return Saved{}, api.ParamError("no-email-address", "userId")
	}

	var saved Saved
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO support_email (from_user_id, to_user_id, to_email, subject, body)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`, r.UserID, toUserID, email, p.String("subject"), p.String("body"),
		).Scan(&saved.ID)
		if err != nil {
			return err
		}
		return s.jobs.EnqueueTx(ctx, tx, jobs.SendSupportEmailName, jobs.SupportEmailPayload{ID: saved.ID})
	})
	if err != nil {
		return Saved{}, fmt.Errorf("send support email: %w", err)
	}

	_, err = r.Query(ctx, "v1/notification/create", map[string]any{
		"userId":      toUserID,
		"type":        NotifySupportEmail,
		"referenceId": saved.ID,
	})
	if err != nil {
		return Saved{}, err
	}
	return saved, nil
}
