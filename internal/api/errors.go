package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/middlewares"
)

// Error identifiers shared by handlers. Entity lookups use "no-such-<entity>".
const (
	CodeLoginNeeded  = middlewares.CodeLoginNeeded
	CodePermission   = middlewares.CodePermission
	CodeBadFormat    = "bad-format"
	CodeNoSuchMethod = "no-such-method"
	CodeWrongMethod  = "wrong-method"
)

// ErrNoSession is returned by Request.Login when the call did not come
// through an HTTP session.
var ErrNoSession = errors.New("api: no session bound to request")

// UserError is a failure the caller can act on. ID is a stable identifier
// that clients and the locale files key on; Param names the offending
// parameter, if any.
type UserError struct {
	ID    string
	Param string
}

func (e *UserError) Error() string {
	if e.Param != "" {
		return e.ID + ": " + e.Param
	}
	return e.ID
}

// StatusCode maps the identifier to an HTTP status.
func (e *UserError) StatusCode() int {
	switch {
	case e.ID == CodeLoginNeeded:
		return http.StatusUnauthorized
	case e.ID == CodePermission:
		return http.StatusForbidden
	case e.ID == CodeWrongMethod:
		return http.StatusMethodNotAllowed
	case strings.HasPrefix(e.ID, "no-such-"):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// NewError returns a UserError without a parameter.
func NewError(id string) *UserError {
	return &UserError{ID: id}
}

// ParamError returns a UserError pointing at param.
func ParamError(id, param string) *UserError {
	return &UserError{ID: id, Param: param}
}

// AsUserError extracts a UserError from err's chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// IsError reports whether err is a UserError with the given identifier.
func IsError(err error, id string) bool {
	ue, ok := AsUserError(err)
	return ok && ue.ID == id
}
