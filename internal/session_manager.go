package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/cookie"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/id"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/session"
)

// ErrSessionNotConfigured is returned by session helpers when the App has no session store.
var ErrSessionNotConfigured = errors.New("session: not configured")

const (
	defaultSessionCookieName = "acc_sid"
	defaultSessionTTL        = 30 * 24 * time.Hour
	defaultTouchInterval     = 5 * time.Minute
)

// SessionManager ties the session store to the signed session cookie.
type SessionManager struct {
	store         session.Store
	cookies       *cookie.Manager
	logger        *slog.Logger
	cookieName    string
	ttl           time.Duration
	touchInterval time.Duration
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a SessionManager. The cookie manager is injected
// by the App so the session cookie shares its secret and flags.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:         store,
		logger:        logger.NewNope(),
		cookieName:    defaultSessionCookieName,
		ttl:           defaultSessionTTL,
		touchInterval: defaultTouchInterval,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionTTL sets how long a session lives after creation.
func WithSessionTTL(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d > 0 {
			sm.ttl = d
		}
	}
}

// WithSessionTouchInterval sets how stale LastActiveAt may get before it is refreshed.
func WithSessionTouchInterval(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d > 0 {
			sm.touchInterval = d
		}
	}
}

func (sm *SessionManager) setLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

func (sm *SessionManager) setCookies(m *cookie.Manager) {
	sm.cookies = m
}

// LoadSession returns the session named by the request cookie.
// A missing, tampered, unknown or expired cookie yields nil, nil.
func (sm *SessionManager) LoadSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	token, err := sm.cookies.GetSigned(r, sm.cookieName)
	switch {
	case errors.Is(err, cookie.ErrNotFound):
		return nil, nil
	case errors.Is(err, cookie.ErrBadSig):
		sm.logger.WarnContext(ctx, "session cookie signature mismatch")
		return nil, nil
	case err != nil:
		return nil, err
	}

	sess, err := sm.store.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if now := time.Now(); now.Sub(sess.LastActiveAt) > sm.touchInterval {
		if err := sm.store.Touch(ctx, sess.ID, now); err != nil {
			sm.logger.WarnContext(ctx, "failed to touch session", "session_id", sess.ID, "error", err)
		} else {
			sess.LastActiveAt = now
		}
	}
	return sess, nil
}

// CreateSession stores a new anonymous session for r.
func (sm *SessionManager) CreateSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	sess := session.New(id.NewULID(), token, sm.ttl)
	sess.IP = remoteIP(r)
	sess.UserAgent = r.UserAgent()

	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess.Saved()
	return sess, nil
}

// SaveSession writes the session cookie.
func (sm *SessionManager) SaveSession(w http.ResponseWriter, sess *session.Session) error {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	return sm.cookies.SetSigned(w, sm.cookieName, sess.Token, maxAge)
}

// RotateToken replaces the session token and persists the session.
// Called whenever the session's user changes so a pre-login token is useless afterwards.
func (sm *SessionManager) RotateToken(ctx context.Context, sess *session.Session) error {
	oldToken := sess.Token
	newToken, err := generateToken()
	if err != nil {
		return err
	}
	sess.Token = newToken

	if err := sm.store.Update(ctx, sess); err != nil {
		sess.Token = oldToken
		return fmt.Errorf("rotate session token: %w", err)
	}
	sess.Saved()
	return nil
}

// DeleteSession clears the session cookie.
func (sm *SessionManager) DeleteSession(w http.ResponseWriter) {
	sm.cookies.Delete(w, sm.cookieName)
}

func (sm *SessionManager) Store() session.Store {
	return sm.store
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
