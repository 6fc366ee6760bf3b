package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/health"
	"github.com/lazysearch/lazysearch/internal/scheduler"
)

// IndexHealthID is the id of the index health task.
const IndexHealthID = "index-health"

// IndexLister lists the configured index names.
type IndexLister interface {
	Names() []string
}

// IndexBackend is what the health check needs from the provider.
type IndexBackend interface {
	IndexLister
	health.Pinger
}

// IndexHealthTask pings every index and records the outcome.
type IndexHealthTask struct {
	backend IndexBackend
	health  *health.Service
	logger  zerolog.Logger
}

// NewIndexHealthTask creates a new index health check task.
func NewIndexHealthTask(backend IndexBackend, healthSvc *health.Service, logger zerolog.Logger) *IndexHealthTask {
	return &IndexHealthTask{
		backend: backend,
		health:  healthSvc,
		logger:  logger.With().Str("task", IndexHealthID).Logger(),
	}
}

// Run executes the index health check.
func (t *IndexHealthTask) Run(ctx context.Context) error {
	names := t.backend.Names()
	if len(names) == 0 {
		t.logger.Info().Msg("No indexes configured, skipping health check")
		return nil
	}

	failed := t.health.Check(ctx, t.backend, names)
	t.logger.Info().Int("checked", len(names)).Int("failed", failed).Msg("Index health check completed")
	return nil
}

// RegisterIndexHealthTask registers the index health check task with the scheduler.
func RegisterIndexHealthTask(sched *scheduler.Scheduler, backend IndexBackend, healthSvc *health.Service, cron string, logger zerolog.Logger) error {
	task := NewIndexHealthTask(backend, healthSvc, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          IndexHealthID,
		Name:        "Index Health Check",
		Description: "Tests connectivity to every configured index",
		Cron:        cron,
		RunOnStart:  true,
		Func:        task.Run,
	})
}
