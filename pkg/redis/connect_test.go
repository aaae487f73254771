package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/redis"
)

func TestOpen_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want error
	}{
		{name: "empty url", url: "", want: redis.ErrEmptyConnectionURL},
		{name: "wrong scheme", url: "http://localhost:6379", want: redis.ErrFailedToParseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := redis.Open(context.Background(), redis.Config{URL: tt.url})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := redis.Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, redis.ErrHealthcheckFailed)
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	require.False(t, redis.Config{}.Enabled())
	require.True(t, redis.Config{URL: "redis://localhost:6379/0"}.Enabled())
}
