// Package acc assembles the ACC API server from its parts.
//
// LoadConfig reads the environment, Open connects to PostgreSQL and the
// optional Redis and S3 backends, and NewApp builds the HTTP stack: the v1
// dispatcher, the admin routes, sessions, translated error messages and
// health probes. Serve, Work and Migrate are the entry points used by
// cmd/acc.
//
//	cfg, err := acc.LoadConfig()
//	if err != nil {
//	    return err
//	}
//	log := acc.NewLogger(cfg)
//	return acc.Serve(ctx, cfg, log, true)
//
// Optional backends degrade instead of failing: without REDIS_URL the cache
// lives in process memory, without AWS_BUCKET image uploads are disabled and
// without RESEND_API_KEY support emails are rendered and logged but not
// delivered.
package acc
