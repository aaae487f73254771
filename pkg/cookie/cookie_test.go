package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/cookie"
)

const secret = "0123456789abcdef0123456789abcdef"

func roundTrip(t *testing.T, set func(w http.ResponseWriter)) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	set(rec)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := cookie.New("short")
	assert.ErrorIs(t, err, cookie.ErrBadSecret)

	m, err := cookie.New("")
	require.NoError(t, err)
	assert.ErrorIs(t, m.SetSigned(httptest.NewRecorder(), "a", "b", 0), cookie.ErrNoSecret)
}

func TestPlain(t *testing.T) {
	t.Parallel()

	m, err := cookie.New("", cookie.WithSecure(true))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Set(rec, "lang", "de", 3600)
	c := rec.Result().Cookies()[0]
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	req := roundTrip(t, func(w http.ResponseWriter) { m.Set(w, "lang", "de", 3600) })
	v, err := m.Get(req, "lang")
	require.NoError(t, err)
	assert.Equal(t, "de", v)

	_, err = m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "lang")
	assert.ErrorIs(t, err, cookie.ErrNotFound)
}

func TestSigned(t *testing.T) {
	t.Parallel()

	m, err := cookie.New(secret)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		req := roundTrip(t, func(w http.ResponseWriter) { require.NoError(t, m.SetSigned(w, "sid", "token-1", 0)) })
		v, err := m.GetSigned(req, "sid")
		require.NoError(t, err)
		assert.Equal(t, "token-1", v)
	})

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(rec, "sid", "token-1", 0))
		c := rec.Result().Cookies()[0]
		_, sig, _ := strings.Cut(c.Value, ".")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "dG9rZW4tMg." + sig})
		_, err := m.GetSigned(req, "sid")
		assert.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("moved to another name", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(rec, "sid", "token-1", 0))
		c := rec.Result().Cookies()[0]

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "other", Value: c.Value})
		_, err := m.GetSigned(req, "other")
		assert.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("different secret", func(t *testing.T) {
		t.Parallel()
		other, err := cookie.New(strings.Repeat("x", 32))
		require.NoError(t, err)
		req := roundTrip(t, func(w http.ResponseWriter) { require.NoError(t, m.SetSigned(w, "sid", "token-1", 0)) })
		_, err = other.GetSigned(req, "sid")
		assert.ErrorIs(t, err, cookie.ErrBadSig)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	m, err := cookie.New("")
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	m.Delete(rec, "sid")
	c := rec.Result().Cookies()[0]
	assert.Equal(t, "sid", c.Name)
	assert.Negative(t, c.MaxAge)
}
