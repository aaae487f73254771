// Package internal holds the HTTP application core: the App, the request
// Context, the chi router adapter and the session plumbing.
//
// Import the root package instead; it re-exports the public surface.
//
// # Context as context.Context
//
// Context embeds context.Context, so a handler passes it straight to pgx,
// the cache or the API dispatcher:
//
//	func (h *Pages) show(c acc.Context) error {
//	    out, err := h.api.Call(c, c.UserID(), "v1/acgames", nil)
//	    if err != nil {
//	        return err
//	    }
//	    return c.JSON(http.StatusOK, out)
//	}
//
// # Middleware state
//
// Each adapted middleware receives its own Context value, but the session and
// the wrapped ResponseWriter are shared through the request, so a session
// loaded by one middleware is visible to the handler.
//
// # Sessions
//
// Sessions load lazily on the first call to Session, UserID or
// IsAuthenticated. The token travels in an HMAC-signed cookie and dirty
// sessions are flushed to the store right before the response is written.
package internal
