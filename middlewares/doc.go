// Package middlewares provides the HTTP middleware stack of the ACC API.
//
// The usual order, outermost first:
//
//	app := acc.New(
//	    acc.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	        middlewares.CORS(middlewares.WithAllowOrigins(cfg.AllowedOrigins...)),
//	        middlewares.Timeout(10*time.Second),
//	        middlewares.Language(bundle),
//	        middlewares.LoadUser(),
//	    ),
//	)
//
// Recover and Timeout return *PanicError and *TimeoutError; the App's
// ErrorHandler decides how to render them.
//
// RequestIDExtractor and UserIDExtractor feed request_id and user_id into
// every log record when passed to logger.New.
//
// RequireUser, RequirePermission and RequireGroup gate plain routes the same
// way the API gates its handlers.
package middlewares
