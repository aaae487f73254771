// Package job runs background tasks on River, backed by the application's
// PostgreSQL pool.
//
// The HTTP process creates an insert-only Enqueuer and adds jobs inside the
// same transaction as the rows they refer to. The worker process creates a
// Manager that registers typed tasks and cron-scheduled tasks:
//
//	m, err := job.NewManager(pool,
//		job.WithTask(tasks.NewSendSupportEmail(mail)),
//		job.WithScheduledTask(tasks.NewPurgeSessions(pool)),
//		job.WithLogger(log),
//	)
//
// Every task travels as one River kind carrying the task name and a JSON
// payload, so adding a task never requires a new River worker type.
// River's own tables are created by Migrate.
package job
