package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/cookie"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// captureHandler registers GET and POST on "/" and hands the Context to fn.
type captureHandler struct {
	fn func(c internal.Context) error
}

func (h *captureHandler) Routes(r internal.Router) {
	r.GET("/", h.fn)
	r.POST("/", h.fn)
}

// serve builds an App around fn and serves req.
func serve(t *testing.T, req *http.Request, opts []internal.Option, fn func(c internal.Context) error) *httptest.ResponseRecorder {
	t.Helper()

	opts = append(opts, internal.WithHandlers(&captureHandler{fn: fn}))
	app := internal.New(opts...)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func signedCookies(t *testing.T) *cookie.Manager {
	t.Helper()
	m, err := cookie.New(testSecret)
	require.NoError(t, err)
	return m
}

// cookieFrom returns the named cookie set on w, or nil.
func cookieFrom(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// memoryStore is a session.Store keyed by token.
type memoryStore struct {
	sessions map[string]*session.Session
	updates  int
	touched  int
	mu       sync.Mutex
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*session.Session)}
}

func (s *memoryStore) Create(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.Token] = &cp
	return nil
}

func (s *memoryStore) Get(_ context.Context, token string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	if sess.IsExpired() {
		return nil, session.ErrExpired
	}
	cp := *sess
	return &cp, nil
}

func (s *memoryStore) Update(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, existing := range s.sessions {
		if existing.ID == sess.ID {
			delete(s.sessions, token)
		}
	}
	cp := *sess
	s.sessions[sess.Token] = &cp
	s.updates++
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.ID == id {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *memoryStore) DeleteByUserID(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *memoryStore) Touch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			sess.LastActiveAt = at
			s.touched++
		}
	}
	return nil
}

func (s *memoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if sess.IsExpired() {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *memoryStore) byUser(userID int) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			return sess
		}
	}
	return nil
}

func newRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req
}
