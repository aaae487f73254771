// Package health serves liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"postgres": db.Healthcheck(pool),
//		"redis":    redis.Healthcheck(client),
//	}))
//
// Readiness runs every check concurrently under one timeout and answers 503
// if any of them fails. Responses are plain text unless the client asks for
// JSON with an Accept header or ?format=json.
package health
