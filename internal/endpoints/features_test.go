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

func TestFollowFeatureToggles(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	unfollow := regexp.QuoteMeta("DELETE FROM feature_follow")

	e.expectExists("feature", 3, true)
	e.mock.ExpectExec(unfollow).WithArgs(3, 4).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	e.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO feature_follow")).WithArgs(3, 4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	res, err := e.call(4, "v1/feature/follow", map[string]any{"id": 3})
	require.NoError(t, err)
	assert.Equal(t, endpoints.Follow{Followed: true}, res)

	e.expectExists("feature", 3, true)
	e.mock.ExpectExec(unfollow).WithArgs(3, 4).WillReturnResult(pgxmock.NewResult("DELETE", 1))

	res, err = e.call(4, "v1/feature/follow", map[string]any{"id": 3})
	require.NoError(t, err)
	assert.Equal(t, endpoints.Follow{Followed: false}, res)
	e.done(t)
}

func TestFollowFeatureNeedsLogin(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.expectExists("feature", 3, true)

	_, err := e.call(0, "v1/feature/follow", map[string]any{"id": 3})
	requireUserError(t, err, api.CodeLoginNeeded)
	e.done(t)
}

func TestFeaturesPage(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cols := []string{"id", "title", "description", "status", "category_id", "created", "user_id", "username", "followed", "count"}
	now := time.Now()
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM feature f")).
		WithArgs(0, 25, 25).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(40, "Dark mode", "Please", "suggestion", 1, now, 2, "isabelle", false, int64(26)))

	res, err := e.call(0, "v1/features", map[string]any{"page": 2})
	require.NoError(t, err)
	page, ok := res.(endpoints.FeaturePage)
	require.True(t, ok)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 26, page.TotalCount)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Dark mode", page.Results[0].Title)
	e.done(t)
}

func TestSaveFeatureFollowsOwnSuggestion(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.expectPermissions(4, userGroup, "suggest-features")
	e.mock.ExpectBegin()
	e.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO feature")).
		WithArgs(4, 2, "Dark mode", "Please").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(41))
	e.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO feature_follow")).WithArgs(41, 4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	e.mock.ExpectCommit()

	res, err := e.call(4, "v1/feature/save", map[string]any{"title": "Dark mode", "description": "Please", "categoryId": 2})
	require.NoError(t, err)
	assert.Equal(t, endpoints.Saved{ID: 41}, res)
	e.done(t)
}
