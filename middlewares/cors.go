package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
)

const DefaultCORSMaxAge = 12 * time.Hour

type corsConfig struct {
	origins     []string
	methods     []string
	headers     []string
	expose      []string
	maxAge      time.Duration
	credentials bool
}

type CORSOption func(*corsConfig)

// WithAllowOrigins lists allowed origins; "*" allows any.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.origins = origins
	}
}

// WithAllowCredentials lets browsers send the session cookie cross-origin.
// The request origin is echoed instead of "*".
func WithAllowCredentials() CORSOption {
	return func(cfg *corsConfig) {
		cfg.credentials = true
	}
}

func WithCORSMaxAge(d time.Duration) CORSOption {
	return func(cfg *corsConfig) {
		cfg.maxAge = d
	}
}

// CORS answers preflight requests and sets Access-Control headers for allowed
// origins. Requests from other origins pass through without CORS headers.
func CORS(opts ...CORSOption) internal.Middleware {
	cfg := &corsConfig{
		methods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		headers: []string{"Accept", "Accept-Language", "Content-Type", RequestIDHeader},
		expose:  []string{RequestIDHeader},
		maxAge:  DefaultCORSMaxAge,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	anyOrigin := slices.Contains(cfg.origins, "*")
	methods := strings.Join(cfg.methods, ", ")
	headers := strings.Join(cfg.headers, ", ")
	expose := strings.Join(cfg.expose, ", ")
	maxAge := strconv.Itoa(int(cfg.maxAge.Seconds()))

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			origin := c.Header("Origin")
			if origin == "" || !(anyOrigin || slices.Contains(cfg.origins, origin)) {
				return next(c)
			}

			h := c.Response().Header()
			h.Add("Vary", "Origin")
			if anyOrigin && !cfg.credentials {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if cfg.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Expose-Headers", expose)

			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.maxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
