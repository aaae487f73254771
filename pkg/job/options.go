package job

import (
	"context"
	"log/slog"
)

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []schedule
	maxWorkers int
}

type schedule struct {
	handle func(context.Context) error
	name   string
	spec   string
}

// Option configures a Manager.
type Option func(*config)

// WithTask registers a task. The payload type is inferred from Handle:
//
//	func (t *SendSupportEmail) Name() string { return "send_support_email" }
//	func (t *SendSupportEmail) Handle(ctx context.Context, p SupportEmailPayload) error
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.add(task.Name(), typed(task.Handle))
	}
}

// WithScheduledTask registers a task that River enqueues on a five-field
// cron schedule returned by Schedule.
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			name:   task.Name(),
			spec:   task.Schedule(),
			handle: task.Handle,
		})
	}
}

// WithQueue adds a named queue with its own worker limit.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if name != "" && workers > 0 {
			c.queues[name] = workers
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers bounds the default queue. Defaults to 100.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}
