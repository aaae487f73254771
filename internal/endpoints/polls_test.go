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

func TestVote(t *testing.T) {
	t.Parallel()

	state := regexp.QuoteMeta("FROM poll p")
	stateCols := []string{"active", "valid_option"}
	insert := regexp.QuoteMeta("INSERT INTO poll_vote")

	t.Run("needs login", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectExists("poll", 2, true)

		_, err := e.call(0, "v1/poll/vote", map[string]any{"id": 2, "optionId": 5})
		requireUserError(t, err, api.CodeLoginNeeded)
		e.done(t)
	})

	t.Run("closed poll", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectExists("poll", 2, true)
		e.mock.ExpectQuery(state).WithArgs(2, 5).WillReturnRows(pgxmock.NewRows(stateCols).AddRow(false, true))

		_, err := e.call(4, "v1/poll/vote", map[string]any{"id": 2, "optionId": 5})
		requireUserError(t, err, "poll-closed")
		e.done(t)
	})

	t.Run("option of another poll", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.expectExists("poll", 2, true)
		e.mock.ExpectQuery(state).WithArgs(2, 5).WillReturnRows(pgxmock.NewRows(stateCols).AddRow(true, false))

		_, err := e.call(4, "v1/poll/vote", map[string]any{"id": 2, "optionId": 5})
		requireUserError(t, err, "no-such-poll-option")
		e.done(t)
	})

	t.Run("one vote per user", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		for _, affected := range []int64{1, 0} {
			e.expectExists("poll", 2, true)
			e.mock.ExpectQuery(state).WithArgs(2, 5).WillReturnRows(pgxmock.NewRows(stateCols).AddRow(true, true))
			e.mock.ExpectExec(insert).WithArgs(2, 5, 4).WillReturnResult(pgxmock.NewResult("INSERT", affected))
		}

		_, err := e.call(4, "v1/poll/vote", map[string]any{"id": 2, "optionId": 5})
		require.NoError(t, err)

		_, err = e.call(4, "v1/poll/vote", map[string]any{"id": 2, "optionId": 5})
		requireUserError(t, err, "already-voted")
		e.done(t)
	})
}

func TestPoll(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.mock.MatchExpectationsInOrder(false)
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	e.expectExists("poll", 2, true)
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM poll p")).WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "question", "description", "start_date", "duration", "active"}).
			AddRow(2, "Favorite fruit?", "", start, 7, true))
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM poll_option o")).WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "description", "sequence", "votes"}).
			AddRow(5, "Peach", 1, 3).
			AddRow(6, "Cherry", 2, 4))
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM poll_vote")).WithArgs(2, 4).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	res, err := e.call(4, "v1/poll", map[string]any{"id": 2})
	require.NoError(t, err)
	poll, ok := res.(*endpoints.Poll)
	require.True(t, ok)
	assert.Equal(t, 7, poll.TotalVotes)
	assert.True(t, poll.UserHasVoted)
	assert.True(t, poll.IsActive)
	assert.Equal(t, start.AddDate(0, 0, 7), poll.EndDate)
	require.Len(t, poll.Options, 2)
	assert.Equal(t, "Cherry", poll.Options[1].Description)
	e.done(t)
}

func TestCurrentPollBetweenPolls(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id FROM poll p")).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	res, err := e.call(0, "v1/poll/current", nil)
	require.NoError(t, err)
	assert.Nil(t, res)
	e.done(t)
}

func TestSavePollWithVotes(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.expectPermissions(1, adminGroup, "polls-admin")
	e.mock.ExpectBegin()
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM poll_vote WHERE poll_id = $1")).WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	e.mock.ExpectRollback()

	_, err := e.call(1, "v1/poll/save", map[string]any{
		"id":        2,
		"question":  "Favorite fruit?",
		"startDate": "2026-10-12",
		"options":   []any{"Peach", "Cherry"},
	})
	requireUserError(t, err, "poll-has-votes")
	e.done(t)
}
