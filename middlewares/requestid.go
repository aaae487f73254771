package middlewares

import (
	"context"
	"log/slog"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/id"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
)

type requestIDKey struct{}

// RequestIDHeader is both read and echoed.
const RequestIDHeader = "X-Request-ID"

// DefaultRequestIDHeaders are checked in order for an upstream ID.
var DefaultRequestIDHeaders = []string{RequestIDHeader, "X-Correlation-ID"}

// maxRequestIDLength bounds IDs accepted from clients.
const maxRequestIDLength = 128

type requestIDConfig struct {
	generator func() string
	headers   []string
}

type RequestIDOption func(*requestIDConfig)

func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.headers = headers
	}
}

func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if gen != nil {
			cfg.generator = gen
		}
	}
}

// RequestID keeps an upstream request ID or generates one, stores it in the
// context and echoes it in the X-Request-ID response header.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &requestIDConfig{
		headers:   DefaultRequestIDHeaders,
		generator: id.NewULID,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	sources := make([]internal.ExtractorSource, 0, len(cfg.headers))
	for _, h := range cfg.headers {
		sources = append(sources, internal.FromHeader(h))
	}
	ext := internal.NewExtractor(sources...)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			reqID, ok := ext.Extract(c)
			if !ok || len(reqID) > maxRequestIDLength {
				reqID = cfg.generator()
			}

			c.Set(requestIDKey{}, reqID)
			c.SetHeader(RequestIDHeader, reqID)
			return next(c)
		}
	}
}

// GetRequestID returns the request ID, or "" outside RequestID.
func GetRequestID(c internal.Context) string {
	return internal.ContextValue[string](c, requestIDKey{})
}

// RequestIDExtractor adds request_id to log records.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(requestIDKey{}).(string); ok && v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
