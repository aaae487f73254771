package middlewares

import (
	"context"
	"log/slog"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
)

type userIDKey struct{}

// Error codes shared with the API layer.
const (
	CodeLoginNeeded = "login-needed"
	CodePermission  = "permission"
)

// Authorizer answers permission and group questions for a user.
// userID 0 is the anonymous guest.
type Authorizer interface {
	HasPermission(ctx context.Context, userID int, permission string) (bool, error)
	InGroup(ctx context.Context, userID int, identifier string) (bool, error)
}

// LoadUser resolves the session user once and stores the ID for logging.
func LoadUser() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if uid := c.UserID(); uid > 0 {
				c.Set(userIDKey{}, uid)
			}
			return next(c)
		}
	}
}

// UserIDExtractor adds user_id to log records for signed-in requests.
func UserIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(userIDKey{}).(int); ok && v > 0 {
			return slog.Int("user_id", v), true
		}
		return slog.Attr{}, false
	}
}

// RequireUser rejects anonymous requests with 401 login-needed.
func RequireUser() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if !c.IsAuthenticated() {
				return loginNeeded(c)
			}
			return next(c)
		}
	}
}

// RequirePermission rejects callers lacking permission. Anonymous callers
// are asked to log in only when the guest group does not hold it either.
func RequirePermission(auth Authorizer, permission string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ok, err := auth.HasPermission(c, c.UserID(), permission)
			if err != nil {
				return err
			}
			if ok {
				return next(c)
			}
			if !c.IsAuthenticated() {
				return loginNeeded(c)
			}
			return forbidden(c)
		}
	}
}

// RequireGroup rejects users outside identifier and its descendant groups.
func RequireGroup(auth Authorizer, identifier string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if !c.IsAuthenticated() {
				return loginNeeded(c)
			}
			ok, err := auth.InGroup(c, c.UserID(), identifier)
			if err != nil {
				return err
			}
			if !ok {
				return forbidden(c)
			}
			return next(c)
		}
	}
}

func loginNeeded(c internal.Context) error {
	return internal.ErrUnauthorized(c.T(CodeLoginNeeded),
		internal.WithErrorCode(CodeLoginNeeded),
		internal.WithRequestID(GetRequestID(c)))
}

func forbidden(c internal.Context) error {
	return internal.ErrForbidden(c.T(CodePermission),
		internal.WithErrorCode(CodePermission),
		internal.WithRequestID(GetRequestID(c)))
}
