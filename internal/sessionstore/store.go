// Package sessionstore keeps HTTP sessions in PostgreSQL.
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/session"
)

// Store implements session.Store on the session table. Anonymous sessions
// store a NULL user_id.
type Store struct {
	db db.Querier
}

var _ session.Store = (*Store)(nil)

func New(q db.Querier) *Store {
	return &Store{db: q}
}

func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO session (id, token, user_id, ip, user_agent, created_at, last_active_at, expires_at)
		VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7, $8)`,
		sess.ID, sess.Token, sess.UserID, sess.IP, sess.UserAgent,
		sess.CreatedAt, sess.LastActiveAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sessionstore: create: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, token string) (*session.Session, error) {
	var sess session.Session
	err := s.db.QueryRow(ctx, `
		SELECT id, token, COALESCE(user_id, 0), ip, user_agent, created_at, last_active_at, expires_at
		FROM session
		WHERE token = $1`, token,
	).Scan(
		&sess.ID, &sess.Token, &sess.UserID, &sess.IP, &sess.UserAgent,
		&sess.CreatedAt, &sess.LastActiveAt, &sess.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sessionstore: get: %w", err)
	}
	if sess.IsExpired() {
		return nil, session.ErrExpired
	}
	return &sess, nil
}

func (s *Store) Update(ctx context.Context, sess *session.Session) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE session
		SET token = $2, user_id = NULLIF($3, 0), last_active_at = $4, expires_at = $5
		WHERE id = $1`,
		sess.ID, sess.Token, sess.UserID, sess.LastActiveAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sessionstore: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM session WHERE id = $1`, id); err != nil {
		return fmt.Errorf("sessionstore: delete: %w", err)
	}
	return nil
}

func (s *Store) DeleteByUserID(ctx context.Context, userID int) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM session WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("sessionstore: delete by user: %w", err)
	}
	return nil
}

// Touch records activity on the session and its user's last_active_time.
func (s *Store) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		WITH touched AS (
			UPDATE session SET last_active_at = $2 WHERE id = $1 RETURNING user_id
		)
		UPDATE users SET last_active_time = $2
		FROM touched
		WHERE users.id = touched.user_id`, id, at)
	if err != nil {
		return fmt.Errorf("sessionstore: touch: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM session WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("sessionstore: delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
