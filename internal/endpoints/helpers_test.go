package endpoints_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/acccache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/endpoints"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/job"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/storage"
)

// Group ids from the seed migration.
const (
	guestGroup = 1
	userGroup  = 2
	adminGroup = 5
)

type env struct {
	mock  pgxmock.PgxPoolIface
	cache *acccache.Cache
	d     *api.Dispatcher
}

func newEnv(t *testing.T, opts ...endpoints.Option) *env {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	cache := acccache.NewMemory()
	t.Cleanup(func() { _ = cache.Close() })

	reg := api.NewRegistry()
	endpoints.New(mock, cache, opts...).Register(reg)

	return &env{mock: mock, cache: cache, d: api.NewDispatcher(reg, mock)}
}

func (e *env) call(userID int, path string, raw map[string]any) (any, error) {
	return e.d.Call(context.Background(), userID, path, raw)
}

func (e *env) done(t *testing.T) {
	t.Helper()
	require.NoError(t, e.mock.ExpectationsWereMet())
}

// expectExists answers the dispatcher's entity check for table.
func (e *env) expectExists(table string, id int, found bool) {
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(found))
}

// expectGroup answers the user's group lookup. Enough on its own once the
// group's permissions are cached.
func (e *env) expectGroup(userID, groupID int) {
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(groupID))
}

// expectPermissions answers a first permission check for userID.
func (e *env) expectPermissions(userID, groupID int, perms ...string) {
	e.expectGroup(userID, groupID)
	rows := pgxmock.NewRows([]string{"identifier", "granted"})
	for _, p := range perms {
		rows.AddRow(p, true)
	}
	e.mock.ExpectQuery(regexp.QuoteMeta("WITH RECURSIVE ancestry")).
		WithArgs(groupID).
		WillReturnRows(rows)
}

func (e *env) expectOwner(query string, id, ownerID int) {
	e.mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(ownerID))
}

func requireUserError(t *testing.T, err error, id string) {
	t.Helper()
	ue, ok := api.AsUserError(err)
	require.True(t, ok, "expected UserError, got %v", err)
	require.Equal(t, id, ue.ID)
}

func ptr[T any](v T) *T { return &v }

type enqueued struct {
	payload any
	name    string
	inTx    bool
}

type fakeJobs struct {
	jobs []enqueued
}

func (f *fakeJobs) Enqueue(_ context.Context, name string, payload any, _ ...job.EnqueueOption) error {
	f.jobs = append(f.jobs, enqueued{name: name, payload: payload})
	return nil
}

func (f *fakeJobs) EnqueueTx(_ context.Context, _ pgx.Tx, name string, payload any, _ ...job.EnqueueOption) error {
	f.jobs = append(f.jobs, enqueued{name: name, payload: payload, inTx: true})
	return nil
}

type fakeStorage struct {
	key         string
	contentType string
	expiry      time.Duration
}

func (f *fakeStorage) PresignUpload(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	f.key, f.contentType, f.expiry = key, contentType, expiry
	return "https://bucket.example.com/" + key + "?sig=1", nil
}

func (f *fakeStorage) URL(_ context.Context, key string, _ ...storage.URLOption) (string, error) {
	return "https://bucket.example.com/" + key, nil
}

func (f *fakeStorage) Head(context.Context, string) (*storage.FileInfo, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeStorage) Delete(context.Context, string) error { return nil }

// argFunc is a pgxmock argument matcher.
type argFunc func(any) bool

func (f argFunc) Match(v any) bool { return f(v) }
