package endpoints_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/endpoints"
)

const shopOwner = "SELECT user_id FROM shop WHERE id = $1"

func TestShop(t *testing.T) {
	t.Parallel()

	t.Run("loads with owner", func(t *testing.T) {
		t.Parallel()
		created := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

		e := newEnv(t)
		e.expectExists("shop", 3, true)
		e.mock.ExpectQuery(regexp.QuoteMeta("FROM shop s")).
			WithArgs(3).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "active", "created", "id", "username"}).
				AddRow(3, "Nook Mart", "Tools", true, created, 4, "Tom"))

		res, err := e.call(0, "v1/shop", map[string]any{"id": 3})
		require.NoError(t, err)
		assert.Equal(t, &endpoints.Shop{
			ID:          3,
			Name:        "Nook Mart",
			Description: "Tools",
			Active:      true,
			Created:     created,
			Owner:       endpoints.UserRef{ID: 4, Username: "Tom"},
		}, res)
		e.done(t)
	})

	t.Run("unknown shop", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectExists("shop", 3, false)

		_, err := e.call(0, "v1/shop", map[string]any{"id": 3})
		requireUserError(t, err, "no-such-shop")
		e.done(t)
	})
}

func TestSaveShop(t *testing.T) {
	t.Parallel()

	t.Run("needs login", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		_, err := e.call(0, "v1/shop/save", map[string]any{"name": "Nook Mart"})
		requireUserError(t, err, api.CodeLoginNeeded)
		e.done(t)
	})

	t.Run("markup-only name is rejected", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		_, err := e.call(4, "v1/shop/save", map[string]any{"name": "<b></b>"})
		requireUserError(t, err, api.CodeBadFormat)
		e.done(t)
	})

	t.Run("creates with tags stripped", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shop")).
			WithArgs(4, "Nook Mart", "Tools", true).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(3))

		res, err := e.call(4, "v1/shop/save", map[string]any{
			"name":        "<b>Nook Mart</b>",
			"description": "Tools",
			"active":      true,
		})
		require.NoError(t, err)
		assert.Equal(t, endpoints.Saved{ID: 3}, res)
		e.done(t)
	})

	t.Run("only the owner updates", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectOwner(shopOwner, 3, 9)

		_, err := e.call(4, "v1/shop/save", map[string]any{"id": 3, "name": "Nook Mart"})
		requireUserError(t, err, api.CodePermission)
		e.done(t)
	})

	t.Run("owner updates", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectOwner(shopOwner, 3, 4)
		e.mock.ExpectExec(regexp.QuoteMeta("UPDATE shop SET")).
			WithArgs(3, "Nook Mart", "", false).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		res, err := e.call(4, "v1/shop/save", map[string]any{"id": 3, "name": "Nook Mart"})
		require.NoError(t, err)
		assert.Equal(t, endpoints.Saved{ID: 3}, res)
		e.done(t)
	})
}

func TestDestroyShop(t *testing.T) {
	t.Parallel()

	t.Run("needs login", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectExists("shop", 3, true)

		_, err := e.call(0, "v1/shop/destroy", map[string]any{"id": 3})
		requireUserError(t, err, api.CodeLoginNeeded)
		e.done(t)
	})

	t.Run("not the owner", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectExists("shop", 3, true)
		e.expectOwner(shopOwner, 3, 9)

		_, err := e.call(4, "v1/shop/destroy", map[string]any{"id": 3})
		requireUserError(t, err, api.CodePermission)
		e.done(t)
	})

	t.Run("owner deletes", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectExists("shop", 3, true)
		e.expectOwner(shopOwner, 3, 4)
		e.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shop WHERE id = $1")).WithArgs(3).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		res, err := e.call(4, "v1/shop/destroy", map[string]any{"id": 3})
		require.NoError(t, err)
		assert.Nil(t, res)
		e.done(t)
	})
}
