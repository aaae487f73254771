package api

import (
	"context"
	"fmt"
)

// SessionBinder signs the HTTP session in as a user.
type SessionBinder interface {
	AuthenticateSession(userID int) error
}

// Request is the caller of a handler. Nested calls made through Query run
// as the same user.
type Request struct {
	d       *Dispatcher
	session SessionBinder
	UserID  int // 0 for anonymous callers
	loader  bool
}

// Query calls another handler, including internal-only ones.
func (r *Request) Query(ctx context.Context, path string, params map[string]any) (any, error) {
	return r.d.call(ctx, r, path, params, true)
}

// QueryAs is Query with the result asserted to T. A nil result yields T's
// zero value.
func QueryAs[T any](ctx context.Context, r *Request, path string, params map[string]any) (T, error) {
	var zero T
	v, err := r.Query(ctx, path, params)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("api: %s returned %T, want %T", path, v, zero)
	}
	return t, nil
}

// RequireUser fails with login-needed for anonymous callers.
func (r *Request) RequireUser() error {
	if r.UserID == 0 {
		return NewError(CodeLoginNeeded)
	}
	return nil
}

// HasPermission reports whether the caller holds permission.
func (r *Request) HasPermission(ctx context.Context, permission string) (bool, error) {
	return QueryAs[bool](ctx, r, PermissionPath, map[string]any{"permission": permission})
}

// RequirePermission fails with permission when the caller lacks it.
// Anonymous callers get login-needed instead.
func (r *Request) RequirePermission(ctx context.Context, permission string) error {
	ok, err := r.HasPermission(ctx, permission)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if r.UserID == 0 {
		return NewError(CodeLoginNeeded)
	}
	return NewError(CodePermission)
}

// RequireGroup fails with permission unless the caller is in identifier or
// one of its descendant groups.
func (r *Request) RequireGroup(ctx context.Context, identifier string) error {
	if r.UserID == 0 {
		return NewError(CodeLoginNeeded)
	}
	ok, err := r.d.InGroup(ctx, r.UserID, identifier)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(CodePermission)
	}
	return nil
}

// Login signs the HTTP session in as userID. Later nested calls on r run as
// that user.
func (r *Request) Login(userID int) error {
	if r.session == nil {
		return ErrNoSession
	}
	if err := r.session.AuthenticateSession(userID); err != nil {
		return err
	}
	r.UserID = userID
	return nil
}
