// Package jobs holds the background tasks run by the worker: support email
// delivery and the periodic purges of old notifications and sessions.
//
// Tasks are registered with pkg/job:
//
//	mgr, err := job.NewManager(pool,
//	    job.WithTask(jobs.NewSendSupportEmail(pool, mail, log)),
//	    job.WithScheduledTask(jobs.NewPurgeNotifications(pool, log)),
//	    job.WithScheduledTask(jobs.NewPurgeSessions(store, log)),
//	)
package jobs
