package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/cookie"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/i18n"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/session"
)

// TranslatorKey is the context key for the request's *i18n.Translator.
type TranslatorKey struct{}

// Context provides request/response access and helper methods.
// It implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Param returns a URL parameter, or "" if absent.
	Param(name string) string

	// Query returns a query string value, or "" if absent.
	Query(name string) string

	// Form returns a form value, parsing the body on first access.
	Form(name string) string

	Header(name string) string
	SetHeader(name, value string)

	// UserID returns the signed-in user's ID, or 0 for anonymous requests.
	// The session is loaded lazily on first call.
	UserID() int

	IsAuthenticated() bool

	JSON(code int, v any) error
	String(code int, s string) error
	NoContent(code int) error

	// Written reports whether the response has been started.
	Written() bool

	Logger() *slog.Logger
	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// SetContext replaces the request context, e.g. to attach a deadline.
	SetContext(ctx context.Context)

	// Set stores a value in the request context; Get reads it back.
	Set(key any, value any)
	Get(key any) any

	Cookie(name string) (string, error)
	SetCookie(name, value string, maxAge int)
	DeleteCookie(name string)

	// CookieSigned and SetCookieSigned return cookie.ErrNoSecret without a secret.
	CookieSigned(name string) (string, error)
	SetCookieSigned(name, value string, maxAge int) error

	// Session returns the current session or nil if the request has none.
	// Returns ErrSessionNotConfigured if the App has no session store.
	Session() (*session.Session, error)

	// AuthenticateSession binds userID to the session, creating one if
	// needed, and rotates its token.
	AuthenticateSession(userID int) error

	// DestroySession deletes the session and clears the cookie.
	DestroySession() error

	ResponseWriter() *ResponseWriter

	// T translates key with the Translator set by the language middleware.
	// Returns key itself when no translator is set.
	T(key string, placeholders ...i18n.M) string

	// Language returns the resolved language, or "".
	Language() string
}

// requestState is shared by every Context built for one request.
type requestState struct {
	session        *session.Session
	sessionLoaded  bool
	hookRegistered bool
}

type requestStateKey struct{}

type requestContext struct {
	request        *http.Request
	response       *ResponseWriter
	logger         *slog.Logger
	cookieManager  *cookie.Manager
	sessionManager *SessionManager
	state          *requestState
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	state, ok := r.Context().Value(requestStateKey{}).(*requestState)
	if !ok {
		state = &requestState{}
		r = r.WithContext(context.WithValue(r.Context(), requestStateKey{}, state))
	}

	return &requestContext{
		request:        r,
		response:       NewResponseWriter(w),
		logger:         app.logger,
		cookieManager:  app.cookieManager,
		sessionManager: app.sessionManager,
		state:          state,
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.response
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) UserID() int {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return 0
	}
	return sess.UserID
}

func (c *requestContext) IsAuthenticated() bool {
	return c.UserID() > 0
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Written() bool {
	return c.response.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Cookie(name string) (string, error) {
	return c.cookieManager.Get(c.request, name)
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	c.cookieManager.Set(c.response, name, value, maxAge)
}

func (c *requestContext) DeleteCookie(name string) {
	c.cookieManager.Delete(c.response, name)
}

func (c *requestContext) CookieSigned(name string) (string, error) {
	return c.cookieManager.GetSigned(c.request, name)
}

func (c *requestContext) SetCookieSigned(name, value string, maxAge int) error {
	return c.cookieManager.SetSigned(c.response, name, value, maxAge)
}

// registerSessionHook persists a dirty session right before the response
// is written. Save errors are logged and do not fail the response.
func (c *requestContext) registerSessionHook() {
	if c.state.hookRegistered {
		return
	}
	c.state.hookRegistered = true
	c.response.OnBeforeWrite(func() {
		sess := c.state.session
		if sess == nil || !sess.IsDirty() {
			return
		}
		if err := c.sessionManager.Store().Update(c.Context(), sess); err != nil {
			c.LogError("failed to save session", "error", err)
			return
		}
		sess.Saved()
	})
}

func (c *requestContext) Session() (*session.Session, error) {
	if c.sessionManager == nil {
		return nil, ErrSessionNotConfigured
	}
	c.registerSessionHook()

	if c.state.sessionLoaded {
		return c.state.session, nil
	}

	sess, err := c.sessionManager.LoadSession(c.Context(), c.request)
	if err != nil {
		return nil, err
	}
	c.state.session = sess
	c.state.sessionLoaded = true
	return sess, nil
}

func (c *requestContext) AuthenticateSession(userID int) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}

	if sess == nil {
		sess, err = c.sessionManager.CreateSession(c.Context(), c.request)
		if err != nil {
			return err
		}
		c.state.session = sess
	}

	sess.Authenticate(userID)
	if err := c.sessionManager.RotateToken(c.Context(), sess); err != nil {
		return err
	}
	return c.sessionManager.SaveSession(c.response, sess)
}

func (c *requestContext) DestroySession() error {
	if c.sessionManager == nil {
		return ErrSessionNotConfigured
	}
	if sess := c.state.session; sess != nil {
		if err := c.sessionManager.Store().Delete(c.Context(), sess.ID); err != nil {
			return err
		}
	}
	c.sessionManager.DeleteSession(c.response)
	c.state.session = nil
	c.state.sessionLoaded = true
	return nil
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.response
}

func (c *requestContext) translator() *i18n.Translator {
	if tr, ok := c.Get(TranslatorKey{}).(*i18n.Translator); ok {
		return tr
	}
	return nil
}

func (c *requestContext) T(key string, placeholders ...i18n.M) string {
	if tr := c.translator(); tr != nil {
		return tr.T(key, placeholders...)
	}
	return key
}

func (c *requestContext) Language() string {
	if tr := c.translator(); tr != nil {
		return tr.Language()
	}
	return ""
}
