// Package session defines the server-side session record and its store.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("session: not found")
	ErrExpired  = errors.New("session: expired")
)

// Session ties a cookie token to an optional signed-in user.
type Session struct {
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time

	ID        string
	Token     string
	IP        string
	UserAgent string
	UserID    int // 0 = anonymous

	dirty bool
	isNew bool
}

// New returns an unsaved anonymous session.
func New(id, token string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(ttl),
		dirty:        true,
		isNew:        true,
	}
}

func (s *Session) IsAuthenticated() bool { return s != nil && s.UserID > 0 }

// Authenticate binds the session to userID.
func (s *Session) Authenticate(userID int) {
	if s.UserID != userID {
		s.UserID = userID
		s.dirty = true
	}
}

func (s *Session) IsExpired() bool { return time.Now().After(s.ExpiresAt) }
func (s *Session) IsDirty() bool   { return s.dirty }
func (s *Session) IsNew() bool     { return s.isNew }

// Saved clears the dirty and new flags after the store persisted s.
func (s *Session) Saved() {
	s.dirty = false
	s.isNew = false
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNotFound for unknown tokens and ErrExpired for expired ones.
	Get(ctx context.Context, token string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID int) error
	Touch(ctx context.Context, id string, at time.Time) error
	// DeleteExpired removes sessions that expired before now and reports how many.
	DeleteExpired(ctx context.Context) (int64, error)
}
