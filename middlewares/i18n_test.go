package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/middlewares"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/i18n"
)

func testBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.New(
		i18n.WithTranslations("en", "errors", map[string]any{"permission": "You do not have permission."}),
		i18n.WithTranslations("de", "errors", map[string]any{"permission": "Keine Berechtigung."}),
		i18n.WithTranslations("en", "mail", map[string]any{"greeting": "Hello"}),
	)
	require.NoError(t, err)
	return b
}

func TestI18n(t *testing.T) {
	t.Parallel()

	bundle := testBundle(t)
	translate := func(c internal.Context) error {
		return c.String(http.StatusOK, c.Language()+"|"+c.T("permission"))
	}

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		expect string
	}{
		{"default language", func(*http.Request) {}, "en|You do not have permission."},
		{"accept-language", func(r *http.Request) { r.Header.Set("Accept-Language", "de-DE,de;q=0.9") }, "de|Keine Berechtigung."},
		{"unsupported language falls back", func(r *http.Request) { r.Header.Set("Accept-Language", "ja") }, "en|You do not have permission."},
		{"cookie beats header", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "lang", Value: "de"})
			r.Header.Set("Accept-Language", "en")
		}, "de|Keine Berechtigung."},
		{"query beats cookie", func(r *http.Request) {
			r.URL.RawQuery = "lang=en"
			r.AddCookie(&http.Cookie{Name: "lang", Value: "de"})
		}, "en|You do not have permission."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			w := do(t, req, []internal.Middleware{middlewares.I18n(bundle)}, translate)
			require.Equal(t, tt.expect, w.Body.String())
		})
	}

	t.Run("custom namespace", func(t *testing.T) {
		t.Parallel()
		w := do(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.I18n(bundle, middlewares.WithI18nNamespace("mail"))},
			func(c internal.Context) error { return c.String(http.StatusOK, c.T("greeting")) })
		require.Equal(t, "Hello", w.Body.String())
	})

	t.Run("custom extractor", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Lang", "de")
		req.Header.Set("Accept-Language", "en")
		w := do(t, req, []internal.Middleware{
			middlewares.I18n(bundle, middlewares.WithI18nExtractor(internal.NewExtractor(internal.FromHeader("X-Lang")))),
		}, translate)
		require.Equal(t, "de|Keine Berechtigung.", w.Body.String())
	})
}
