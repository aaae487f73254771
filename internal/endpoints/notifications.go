package endpoints

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
)

// Notification types.
const (
	NotifySupportTicket   = "support-ticket"
	NotifySupportEmail    = "support-email"
	NotifyFeatureUpdate   = "feature-update"
	NotifyPatternFavorite = "pattern-favorite"
)

type Notification struct {
	Created     time.Time `json:"created" db:"created"`
	ReferenceID *int      `json:"referenceId" db:"reference_id"`
	Type        string    `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
	ID          int       `json:"id" db:"id"`
}

const notificationOwnerQuery = `SELECT user_id FROM notification WHERE id = $1`

func (s *Service) registerNotifications(reg *api.Registry) {
	reg.Register("v1/notifications", nil, api.Handle(s.notifications))

	reg.Register("v1/notification/create", api.Schema{
		"userId": {Type: api.UserID, Required: true},
		"type": {
			Type:     api.String,
			Required: true,
			Options:  []string{NotifySupportTicket, NotifySupportEmail, NotifyFeatureUpdate, NotifyPatternFavorite},
		},
		"referenceId": {Type: api.Number, Nullable: true, Min: 1},
		"description": {Type: api.String, Length: 200},
	}, api.Handle(s.createNotification), api.Internal(), api.Action())

	reg.Register("v1/notification/destroy", api.Schema{
		"id": {Type: api.Number, Required: true, Min: 1},
	}, s.destroyNotification, api.Action())
}

func (s *Service) notifications(ctx context.Context, r *api.Request, _ api.Params) ([]Notification, error) {
	if err := r.RequireUser(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, type, reference_id, description, created
		FROM notification
		WHERE user_id = $1 AND notified IS NULL
		ORDER BY created DESC, id DESC`, r.UserID)
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Notification])
}

func (s *Service) createNotification(ctx context.Context, _ *api.Request, p api.Params) (Saved, error) {
	var saved Saved
	err := s.db.QueryRow(ctx, `
		INSERT INTO notification (user_id, type, reference_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, p.Int("userId"), p.String("type"), p.OptInt("referenceId"), p.String("description"),
	).Scan(&saved.ID)
	if err != nil {
		return Saved{}, fmt.Errorf("create notification: %w", err)
	}
	return saved, nil
}

func (s *Service) destroyNotification(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequireUser(); err != nil {
		return nil, err
	}
	id := p.Int("id")
	if err := s.requireOwner(ctx, r, notificationOwnerQuery, id, "no-such-notification"); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM notification WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("destroy notification: %w", err)
	}
	return nil, nil
}
