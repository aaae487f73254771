package sessionstore_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/sessionstore"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/session"
)

var sessionColumns = []string{"id", "token", "user_id", "ip", "user_agent", "created_at", "last_active_at", "expires_at"}

func newStore(t *testing.T) (*sessionstore.Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return sessionstore.New(mock), mock
}

func TestStoreGet(t *testing.T) {
	t.Parallel()

	getQuery := regexp.QuoteMeta("FROM session")
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		store, mock := newStore(t)
		mock.ExpectQuery(getQuery).WithArgs("tok").WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow("sid", "tok", 4, "10.0.0.1", "curl", now, now, now.Add(time.Hour)))

		sess, err := store.Get(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "sid", sess.ID)
		assert.Equal(t, 4, sess.UserID)
		assert.False(t, sess.IsDirty())
		assert.False(t, sess.IsNew())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()

		store, mock := newStore(t)
		mock.ExpectQuery(getQuery).WithArgs("nope").WillReturnError(pgx.ErrNoRows)

		_, err := store.Get(context.Background(), "nope")
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()

		store, mock := newStore(t)
		mock.ExpectQuery(getQuery).WithArgs("old").WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow("sid", "old", 0, "", "", now.Add(-2*time.Hour), now.Add(-2*time.Hour), now.Add(-time.Hour)))

		_, err := store.Get(context.Background(), "old")
		require.ErrorIs(t, err, session.ErrExpired)
	})
}

func TestStoreWrites(t *testing.T) {
	t.Parallel()

	t.Run("create stores anonymous user as zero", func(t *testing.T) {
		t.Parallel()

		store, mock := newStore(t)
		sess := session.New("sid", "tok", time.Hour)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session")).
			WithArgs("sid", "tok", 0, "", "", sess.CreatedAt, sess.LastActiveAt, sess.ExpiresAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.Create(context.Background(), sess))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update of a vanished session", func(t *testing.T) {
		t.Parallel()

		store, mock := newStore(t)
		sess := session.New("sid", "tok", time.Hour)
		sess.Authenticate(9)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE session")).
			WithArgs("sid", "tok", 9, sess.LastActiveAt, sess.ExpiresAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		require.ErrorIs(t, store.Update(context.Background(), sess), session.ErrNotFound)
	})

	t.Run("touch updates user activity", func(t *testing.T) {
		t.Parallel()

		store, mock := newStore(t)
		at := time.Now()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_active_time = $2")).
			WithArgs("sid", at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.Touch(context.Background(), "sid", at))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete expired reports count", func(t *testing.T) {
		t.Parallel()

		store, mock := newStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session WHERE expires_at < now()")).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		n, err := store.DeleteExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("delete by user", func(t *testing.T) {
		t.Parallel()

		store, mock := newStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session WHERE user_id = $1")).
			WithArgs(9).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))

		require.NoError(t, store.DeleteByUserID(context.Background(), 9))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
