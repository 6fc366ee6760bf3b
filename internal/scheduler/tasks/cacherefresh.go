// Package tasks defines the background tasks registered with the scheduler.
package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/scheduler"
)

// CacheRefreshID is the id of the cache refresh task.
const CacheRefreshID = "cache-refresh"

// KeyBumper advances the cache key of every live session.
type KeyBumper interface {
	BumpKeys(ctx context.Context) (int, error)
}

// CacheClearer evicts every index cache.
type CacheClearer interface {
	ClearAll()
}

// CacheRefreshTask forces fresh results. Live sessions get a new cache key,
// which clears their index cache and re-runs their current query; indexes
// without sessions are cleared directly.
type CacheRefreshTask struct {
	sessions KeyBumper
	indexes  CacheClearer
	logger   zerolog.Logger
}

// NewCacheRefreshTask creates a new cache refresh task.
func NewCacheRefreshTask(sessions KeyBumper, indexes CacheClearer, logger zerolog.Logger) *CacheRefreshTask {
	return &CacheRefreshTask{
		sessions: sessions,
		indexes:  indexes,
		logger:   logger.With().Str("task", CacheRefreshID).Logger(),
	}
}

// Run executes the refresh.
func (t *CacheRefreshTask) Run(ctx context.Context) error {
	t.indexes.ClearAll()

	n, err := t.sessions.BumpKeys(ctx)
	if err != nil {
		return err
	}

	t.logger.Info().Int("sessions", n).Msg("Cache refresh completed")
	return nil
}

// RegisterCacheRefreshTask registers the cache refresh task with the scheduler.
func RegisterCacheRefreshTask(sched *scheduler.Scheduler, sessions KeyBumper, indexes CacheClearer, cron string, logger zerolog.Logger) error {
	task := NewCacheRefreshTask(sessions, indexes, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          CacheRefreshID,
		Name:        "Cache Refresh",
		Description: "Clears index caches and re-runs the current query of every live session",
		Cron:        cron,
		Func:        task.Run,
	})
}
