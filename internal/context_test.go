package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/cookie"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/i18n"
)

const sessionCookie = "acc_sid"

func sessionOpts(t *testing.T, store *memoryStore, extra ...internal.SessionOption) []internal.Option {
	t.Helper()
	return []internal.Option{
		internal.WithCookies(signedCookies(t)),
		internal.WithSession(store, extra...),
	}
}

func TestContext_UserID(t *testing.T) {
	t.Parallel()

	t.Run("anonymous without session store", func(t *testing.T) {
		t.Parallel()
		serve(t, newRequest(http.MethodGet, "/", ""), nil, func(c internal.Context) error {
			require.Equal(t, 0, c.UserID())
			require.False(t, c.IsAuthenticated())
			_, err := c.Session()
			require.ErrorIs(t, err, internal.ErrSessionNotConfigured)
			return nil
		})
	})

	t.Run("anonymous without cookie", func(t *testing.T) {
		t.Parallel()
		store := newMemoryStore()
		serve(t, newRequest(http.MethodGet, "/", ""), sessionOpts(t, store), func(c internal.Context) error {
			sess, err := c.Session()
			require.NoError(t, err)
			require.Nil(t, sess)
			require.Equal(t, 0, c.UserID())
			return nil
		})
	})
}

func TestContext_AuthenticateSession(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	opts := sessionOpts(t, store)

	w := serve(t, newRequest(http.MethodPost, "/", ""), opts, func(c internal.Context) error {
		require.NoError(t, c.AuthenticateSession(7))
		require.Equal(t, 7, c.UserID())
		return c.NoContent(http.StatusNoContent)
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	sid := cookieFrom(w, sessionCookie)
	require.NotNil(t, sid)
	require.True(t, sid.HttpOnly)
	require.Equal(t, 1, store.len())

	stored := store.byUser(7)
	require.NotNil(t, stored)
	require.NotContains(t, sid.Value, stored.ID)

	t.Run("cookie restores the user", func(t *testing.T) {
		req := newRequest(http.MethodGet, "/", "")
		req.AddCookie(sid)
		serve(t, req, opts, func(c internal.Context) error {
			require.Equal(t, 7, c.UserID())
			require.True(t, c.IsAuthenticated())
			return nil
		})
	})

	t.Run("tampered cookie is anonymous", func(t *testing.T) {
		req := newRequest(http.MethodGet, "/", "")
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sid.Value + "x"})
		serve(t, req, opts, func(c internal.Context) error {
			require.Equal(t, 0, c.UserID())
			return nil
		})
	})

	t.Run("destroy removes the session", func(t *testing.T) {
		req := newRequest(http.MethodPost, "/", "")
		req.AddCookie(sid)
		w := serve(t, req, opts, func(c internal.Context) error {
			require.Equal(t, 7, c.UserID())
			require.NoError(t, c.DestroySession())
			require.Equal(t, 0, c.UserID())
			return c.NoContent(http.StatusNoContent)
		})
		require.Equal(t, 0, store.len())
		cleared := cookieFrom(w, sessionCookie)
		require.NotNil(t, cleared)
		require.Negative(t, cleared.MaxAge)
	})
}

func TestContext_SessionRotatesTokenOnLogin(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	opts := sessionOpts(t, store)

	first := serve(t, newRequest(http.MethodPost, "/", ""), opts, func(c internal.Context) error {
		require.NoError(t, c.AuthenticateSession(1))
		return c.NoContent(http.StatusOK)
	})
	before := cookieFrom(first, sessionCookie)
	require.NotNil(t, before)

	req := newRequest(http.MethodPost, "/", "")
	req.AddCookie(before)
	second := serve(t, req, opts, func(c internal.Context) error {
		require.NoError(t, c.AuthenticateSession(2))
		return c.NoContent(http.StatusOK)
	})
	after := cookieFrom(second, sessionCookie)
	require.NotNil(t, after)
	require.NotEqual(t, before.Value, after.Value)
	require.Equal(t, 1, store.len())

	old := newRequest(http.MethodGet, "/", "")
	old.AddCookie(before)
	serve(t, old, opts, func(c internal.Context) error {
		require.Equal(t, 0, c.UserID())
		return nil
	})
}

func TestContext_SessionSharedWithMiddleware(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	opts := sessionOpts(t, store)

	login := serve(t, newRequest(http.MethodPost, "/", ""), opts, func(c internal.Context) error {
		return c.AuthenticateSession(3)
	})
	sid := cookieFrom(login, sessionCookie)
	require.NotNil(t, sid)

	var seen int
	mw := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			seen = c.UserID()
			return next(c)
		}
	}

	req := newRequest(http.MethodGet, "/", "")
	req.AddCookie(sid)
	w := serve(t, req, append(opts, internal.WithMiddleware(mw)), func(c internal.Context) error {
		sess, err := c.Session()
		require.NoError(t, err)
		require.NotNil(t, sess)
		// Mutating the shared session marks it dirty; the hook flushes it.
		sess.Authenticate(4)
		return c.NoContent(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 3, seen)
	require.NotNil(t, store.byUser(4))
}

func TestContext_SessionTouch(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	opts := sessionOpts(t, store, internal.WithSessionTouchInterval(time.Nanosecond))

	login := serve(t, newRequest(http.MethodPost, "/", ""), opts, func(c internal.Context) error {
		return c.AuthenticateSession(9)
	})
	sid := cookieFrom(login, sessionCookie)
	require.NotNil(t, sid)

	time.Sleep(time.Millisecond)
	req := newRequest(http.MethodGet, "/", "")
	req.AddCookie(sid)
	serve(t, req, opts, func(c internal.Context) error {
		require.Equal(t, 9, c.UserID())
		return nil
	})
	require.Equal(t, 1, store.touched)
}

func TestContext_Cookies(t *testing.T) {
	t.Parallel()

	t.Run("signed cookie round trip", func(t *testing.T) {
		t.Parallel()
		opts := []internal.Option{internal.WithCookies(signedCookies(t))}
		w := serve(t, newRequest(http.MethodGet, "/", ""), opts, func(c internal.Context) error {
			return c.SetCookieSigned("pref", "dark", 3600)
		})
		set := cookieFrom(w, "pref")
		require.NotNil(t, set)

		req := newRequest(http.MethodGet, "/", "")
		req.AddCookie(set)
		serve(t, req, opts, func(c internal.Context) error {
			v, err := c.CookieSigned("pref")
			require.NoError(t, err)
			require.Equal(t, "dark", v)
			return nil
		})
	})

	t.Run("signed cookie without secret", func(t *testing.T) {
		t.Parallel()
		serve(t, newRequest(http.MethodGet, "/", ""), nil, func(c internal.Context) error {
			require.ErrorIs(t, c.SetCookieSigned("pref", "dark", 60), cookie.ErrNoSecret)
			return nil
		})
	})

	t.Run("plain cookie", func(t *testing.T) {
		t.Parallel()
		req := newRequest(http.MethodGet, "/", "")
		req.AddCookie(&http.Cookie{Name: "lang", Value: "de"})
		serve(t, req, nil, func(c internal.Context) error {
			v, err := c.Cookie("lang")
			require.NoError(t, err)
			require.Equal(t, "de", v)
			_, err = c.Cookie("missing")
			require.ErrorIs(t, err, cookie.ErrNotFound)
			return nil
		})
	})
}

func TestContext_Translate(t *testing.T) {
	t.Parallel()

	bundle, err := i18n.New(i18n.WithTranslations("en", "errors", map[string]any{
		"no-such-town": "Town {{id}} does not exist.",
	}))
	require.NoError(t, err)

	serve(t, newRequest(http.MethodGet, "/", ""), nil, func(c internal.Context) error {
		require.Equal(t, "no-such-town", c.T("no-such-town"))
		require.Empty(t, c.Language())

		c.Set(internal.TranslatorKey{}, i18n.NewTranslator(bundle, "en", "errors"))
		require.Equal(t, "Town 5 does not exist.", c.T("no-such-town", i18n.M{"id": 5}))
		require.Equal(t, "en", c.Language())
		return nil
	})
}

func TestContext_Accessors(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?page=2", nil)
	req.Header.Set("X-Test", "yes")
	w := serve(t, req, nil, func(c internal.Context) error {
		require.Equal(t, "2", c.Query("page"))
		require.Equal(t, "yes", c.Header("X-Test"))
		require.NotNil(t, c.Logger())
		require.False(t, c.Written())
		c.SetHeader("X-Out", "1")
		require.NoError(t, c.String(http.StatusAccepted, "ok"))
		require.True(t, c.Written())
		require.Equal(t, http.StatusAccepted, c.ResponseWriter().Status())
		return nil
	})
	require.Equal(t, "1", w.Header().Get("X-Out"))
}
