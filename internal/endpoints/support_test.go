package endpoints_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/endpoints"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/jobs"
)

const ticketOwner = "SELECT user_id FROM support_ticket WHERE id = $1"

func TestSendSupportEmail(t *testing.T) {
	t.Parallel()

	t.Run("queues delivery with the row", func(t *testing.T) {
		t.Parallel()
		q := &fakeJobs{}
		e := newEnv(t, endpoints.WithJobs(q))

		e.expectExists("users", 7, true)
		e.expectPermissions(1, adminGroup, "process-support-emails")
		e.mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM users WHERE id = $1")).WithArgs(7).
			WillReturnRows(pgxmock.NewRows([]string{"email"}).AddRow("isabelle@example.com"))
		e.mock.ExpectBegin()
		e.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO support_email")).
			WithArgs(1, 7, "isabelle@example.com", "Hello", "Welcome back").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(12))
		e.mock.ExpectCommit()
		e.expectExists("users", 7, true)
		e.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notification")).
			WithArgs(7, endpoints.NotifySupportEmail, ptr(12), "").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(30))

		res, err := e.call(1, "v1/support_email/send", map[string]any{"userId": 7, "subject": "Hello", "body": "Welcome back"})
		require.NoError(t, err)
		assert.Equal(t, endpoints.Saved{ID: 12}, res)

		require.Len(t, q.jobs, 1)
		assert.Equal(t, jobs.SendSupportEmailName, q.jobs[0].name)
		assert.Equal(t, jobs.SupportEmailPayload{ID: 12}, q.jobs[0].payload)
		assert.True(t, q.jobs[0].inTx)
		e.done(t)
	})

	t.Run("recipient without email", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, endpoints.WithJobs(&fakeJobs{}))

		e.expectExists("users", 7, true)
		e.expectPermissions(1, adminGroup, "process-support-emails")
		e.mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM users WHERE id = $1")).WithArgs(7).
			WillReturnRows(pgxmock.NewRows([]string{"email"}).AddRow(""))

		_, err := e.call(1, "v1/support_email/send", map[string]any{"userId": 7, "subject": "Hello", "body": "Welcome back"})
		requireUserError(t, err, "no-email-address")
		e.done(t)
	})

	t.Run("without a queue", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		e.expectExists("users", 7, true)
		e.expectPermissions(1, adminGroup, "process-support-emails")

		_, err := e.call(1, "v1/support_email/send", map[string]any{"userId": 7, "subject": "Hello", "body": "Welcome back"})
		require.ErrorIs(t, err, endpoints.ErrJobsDisabled)
		e.done(t)
	})
}

func TestSupportMessage(t *testing.T) {
	t.Parallel()

	insert := regexp.QuoteMeta("INSERT INTO support_ticket_message")

	t.Run("staff reply notifies the owner", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		e.expectExists("support_ticket", 3, true)
		e.expectOwner(ticketOwner, 3, 4)
		e.expectPermissions(1, adminGroup, "process-support-tickets")
		e.mock.ExpectQuery(insert).WithArgs(3, 1, "Thanks", false).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id"}).AddRow(20, 4))
		e.expectExists("users", 4, true)
		e.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notification")).
			WithArgs(4, endpoints.NotifySupportTicket, ptr(3), "").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(31))

		res, err := e.call(1, "v1/support_ticket/message/save", map[string]any{"id": 3, "message": "Thanks"})
		require.NoError(t, err)
		assert.Equal(t, endpoints.Saved{ID: 20}, res)
		e.done(t)
	})

	t.Run("owner cannot post staff notes", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		e.expectExists("support_ticket", 3, true)
		e.expectOwner(ticketOwner, 3, 4)
		e.expectPermissions(4, userGroup)

		_, err := e.call(4, "v1/support_ticket/message/save", map[string]any{"id": 3, "message": "Hi", "staffOnly": true})
		requireUserError(t, err, api.CodePermission)
		e.done(t)
	})

	t.Run("stranger", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		e.expectExists("support_ticket", 3, true)
		e.expectOwner(ticketOwner, 3, 4)
		e.expectPermissions(6, userGroup)

		_, err := e.call(6, "v1/support_ticket", map[string]any{"id": 3})
		requireUserError(t, err, api.CodePermission)
		e.done(t)
	})
}

func TestSaveSupportTicket(t *testing.T) {
	t.Parallel()

	t.Run("needs login", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		_, err := e.call(0, "v1/support_ticket/save", map[string]any{"title": "Lost town", "message": "Help"})
		requireUserError(t, err, api.CodeLoginNeeded)
		e.done(t)
	})

	t.Run("title without text", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		_, err := e.call(4, "v1/support_ticket/save", map[string]any{"title": "<i></i>", "message": "Help"})
		requireUserError(t, err, api.CodeBadFormat)
		e.done(t)
	})

	t.Run("ticket and first message in one transaction", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.mock.ExpectBegin()
		e.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO support_ticket (user_id, title)")).
			WithArgs(4, "Lost town").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(12))
		e.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO support_ticket_message")).
			WithArgs(12, 4, "<p>Help</p>").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		e.mock.ExpectCommit()

		res, err := e.call(4, "v1/support_ticket/save", map[string]any{
			"title":   "<i>Lost town</i>",
			"message": "<p>Help</p><script>alert(1)</script>",
		})
		require.NoError(t, err)
		assert.Equal(t, endpoints.Saved{ID: 12}, res)
		e.done(t)
	})

	t.Run("failed message rolls the ticket back", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.mock.ExpectBegin()
		e.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO support_ticket (user_id, title)")).
			WithArgs(4, "Lost town").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(12))
		e.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO support_ticket_message")).
			WithArgs(12, 4, "Help").
			WillReturnError(errors.New("disk full"))
		e.mock.ExpectRollback()

		_, err := e.call(4, "v1/support_ticket/save", map[string]any{"title": "Lost town", "message": "Help"})
		require.Error(t, err)
		_, isUserErr := api.AsUserError(err)
		assert.False(t, isUserErr)
		e.done(t)
	})
}
