package internal

// Handler declares routes on a router.
//
//	func (h *API) Routes(r acc.Router) {
//	    r.GET("/api/v1/*", h.load)
//	    r.POST("/api/v1/*", h.act)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// A non-nil error is passed to the App's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error
