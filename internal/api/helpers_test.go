package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
)

func echo(_ context.Context, _ *api.Request, p api.Params) (api.Params, error) {
	return p, nil
}

// validate runs raw through schema and returns the converted Params.
func validate(t *testing.T, q db.Querier, schema api.Schema, raw map[string]any) (api.Params, error) {
	t.Helper()

	reg := api.NewRegistry()
	reg.Register("v1/echo", schema, api.Handle(echo))

	res, err := api.NewDispatcher(reg, q).Call(context.Background(), 0, "v1/echo", raw)
	if err != nil {
		return nil, err
	}
	p, ok := res.(api.Params)
	require.True(t, ok)
	return p, nil
}

func requireUserError(t *testing.T, err error, id, param string) {
	t.Helper()

	ue, ok := api.AsUserError(err)
	require.True(t, ok, "expected UserError, got %v", err)
	require.Equal(t, id, ue.ID)
	require.Equal(t, param, ue.Param)
}

type binder struct {
	userID int
	err    error
}

func (b *binder) AuthenticateSession(userID int) error {
	if b.err != nil {
		return b.err
	}
	b.userID = userID
	return nil
}
