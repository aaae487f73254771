package internal_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
)

func TestIsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("direct", func(t *testing.T) {
		t.Parallel()
		require.True(t, internal.IsHTTPError(internal.ErrUnauthorized("login")))
	})

	t.Run("wrapped twice", func(t *testing.T) {
		t.Parallel()
		httpErr := internal.ErrForbidden("forbidden")
		err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", httpErr))
		require.True(t, internal.IsHTTPError(err))
	})

	t.Run("unrelated error", func(t *testing.T) {
		t.Parallel()
		require.False(t, internal.IsHTTPError(errors.New("boom")))
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		require.False(t, internal.IsHTTPError(nil))
	})
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("wrapped error keeps fields", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("db down")
		httpErr := internal.NewHTTPError(http.StatusNotFound, "No such town",
			internal.WithErrorCode("no-such-town"),
			internal.WithParam("id"),
			internal.WithRequestID("req-1"),
			internal.WithError(cause),
		)
		err := fmt.Errorf("handler: %w", httpErr)

		got := internal.AsHTTPError(err)
		require.NotNil(t, got)
		require.Equal(t, http.StatusNotFound, got.StatusCode())
		require.Equal(t, "Not Found", got.StatusText())
		require.Equal(t, "No such town", got.Error())
		require.Equal(t, "no-such-town", got.ErrorCode)
		require.Equal(t, "id", got.Param)
		require.Equal(t, "req-1", got.RequestID)
		require.ErrorIs(t, got, cause)
	})

	t.Run("plain error returns nil", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, internal.AsHTTPError(errors.New("plain")))
	})
}

func TestErrorConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *internal.HTTPError
		code int
	}{
		{internal.ErrUnauthorized("x"), http.StatusUnauthorized},
		{internal.ErrForbidden("x"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.code, tt.err.Code)
		})
	}
}
