package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
)

// PermissionPath is the handler consulted by RequirePermission.
const PermissionPath = "v1/permission"

// GuestGroup is the group identifier of anonymous callers.
const GuestGroup = "guest"

// Dispatcher validates input and runs registered handlers.
type Dispatcher struct {
	registry *Registry
	db       db.Querier
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher returns a Dispatcher over reg. q serves entity existence
// checks and group lookups.
func NewDispatcher(reg *Registry, q db.Querier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		db:       q,
		logger:   logger.NewNope(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CallOption configures the Request built by Call.
type CallOption func(*Request)

// WithSession lets handlers sign the caller in through s.
func WithSession(s SessionBinder) CallOption {
	return func(r *Request) {
		r.session = s
	}
}

// AsLoader marks a read-only call. Handlers registered with Action are
// refused.
func AsLoader() CallOption {
	return func(r *Request) {
		r.loader = true
	}
}

// Call runs the handler at path for userID (0 for anonymous callers).
// Unknown and internal-only paths fail with no-such-method; actions called
// as a loader fail with wrong-method.
func (d *Dispatcher) Call(ctx context.Context, userID int, path string, raw map[string]any, opts ...CallOption) (any, error) {
	r := &Request{UserID: userID, d: d}
	for _, opt := range opts {
		opt(r)
	}
	return d.call(ctx, r, path, raw, false)
}

func (d *Dispatcher) call(ctx context.Context, r *Request, path string, raw map[string]any, nested bool) (any, error) {
	m, ok := d.registry.lookup(path)
	if !ok || m.internal && !nested {
		return nil, NewError(CodeNoSuchMethod)
	}
	if m.action && r.loader && !nested {
		return nil, NewError(CodeWrongMethod)
	}

	p, err := d.validate(ctx, m.schema, raw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := m.fn(ctx, r, p)
	d.logger.DebugContext(ctx, "api call",
		slog.String("path", path),
		slog.Int("user_id", r.UserID),
		slog.Bool("nested", nested),
		slog.Duration("duration", time.Since(start)),
	)
	if err != nil {
		if _, ok := AsUserError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// HasPermission asks the permission handler whether userID holds permission.
func (d *Dispatcher) HasPermission(ctx context.Context, userID int, permission string) (bool, error) {
	r := &Request{UserID: userID, d: d}
	return r.HasPermission(ctx, permission)
}

const inGroupQuery = `
WITH RECURSIVE tree AS (
	SELECT id FROM user_group WHERE identifier = $1
	UNION ALL
	SELECT g.id FROM user_group g JOIN tree t ON g.parent_id = t.id
)
SELECT 1 FROM tree
WHERE id = COALESCE(
	(SELECT user_group_id FROM users WHERE id = $2),
	(SELECT id FROM user_group WHERE identifier = '` + GuestGroup + `')
)`

// InGroup reports whether userID belongs to identifier or one of its
// descendant groups. Anonymous callers are members of the guest group.
func (d *Dispatcher) InGroup(ctx context.Context, userID int, identifier string) (bool, error) {
	ok, err := db.Exists(ctx, d.db, inGroupQuery, identifier, userID)
	if err != nil {
		return false, fmt.Errorf("api: group %s: %w", identifier, err)
	}
	return ok, nil
}
