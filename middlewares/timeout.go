package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
)

// DefaultTimeout applies when Timeout is given a non-positive duration.
const DefaultTimeout = 30 * time.Second

// Timeout attaches a deadline to the request context. Database calls and
// nested API queries observe it through the context; when the chain returns
// after the deadline without writing a response, a *TimeoutError is returned.
func Timeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()
			c.SetContext(ctx)

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Written() {
				c.LogWarn("request timeout", "timeout", timeout.String(), "error", err)
				return &TimeoutError{Duration: timeout}
			}
			return err
		}
	}
}
