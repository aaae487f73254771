package middlewares_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/middlewares"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	echo := func(c internal.Context) error {
		return c.String(http.StatusOK, middlewares.GetRequestID(c))
	}

	t.Run("generates an ID", func(t *testing.T) {
		t.Parallel()
		w := do(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.RequestID()}, echo)
		require.Len(t, w.Body.String(), 26)
		require.Equal(t, w.Body.String(), w.Header().Get(middlewares.RequestIDHeader))
	})

	t.Run("keeps an upstream ID", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "upstream-1")
		w := do(t, req, []internal.Middleware{middlewares.RequestID()}, echo)
		require.Equal(t, "upstream-1", w.Body.String())
	})

	t.Run("first configured header wins", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace", "trace")
		req.Header.Set("X-Request-ID", "req")
		w := do(t, req, []internal.Middleware{
			middlewares.RequestID(middlewares.WithRequestIDHeaders("X-Trace", "X-Request-ID")),
		}, echo)
		require.Equal(t, "trace", w.Body.String())
	})

	t.Run("oversized upstream ID is replaced", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("a", 500))
		w := do(t, req, []internal.Middleware{
			middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "fresh" })),
		}, echo)
		require.Equal(t, "fresh", w.Body.String())
	})

	t.Run("outside the middleware", func(t *testing.T) {
		t.Parallel()
		w := do(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, echo)
		require.Empty(t, w.Body.String())
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(logger.NewLogHandlerDecorator(
		slog.NewJSONHandler(&buf, nil),
		middlewares.RequestIDExtractor(),
	))

	do(t, httptest.NewRequest(http.MethodGet, "/", nil),
		[]internal.Middleware{middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "rid-1" }))},
		func(c internal.Context) error {
			c.LogInfo("handled")
			return c.NoContent(http.StatusOK)
		},
		internal.WithLogger(log))

	require.Contains(t, buf.String(), `"request_id":"rid-1"`)

	_, found := middlewares.RequestIDExtractor()(context.Background())
	require.False(t, found)
}
