// Package logger builds the service's slog.Logger.
//
// Records go to stdout as JSON (or text with LOG_FORMAT=text). When SENTRY_DSN
// is set, warnings and errors are also forwarded to Sentry. ContextExtractor
// functions copy request-scoped values such as the request ID or the signed-in
// user onto every record written with a context:
//
//	log := logger.New(cfg.Log, requestIDExtractor, userIDExtractor)
//	log.InfoContext(ctx, "support ticket created", slog.Int("id", id))
package logger
