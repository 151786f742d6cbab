package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/tmichel/herald/artwork"
	"github.com/tmichel/herald/cache"
)

// setupJobs schedules the housekeeping that runs outside the main
// poll-decide-push cycle: pruning stale artwork cache entries and keeping
// the TVDB bearer token fresh.
func setupJobs(store *cache.Cache, art *artwork.Client) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)

	s.Every(1).Hours().Do(func() {
		removed, err := store.Prune()
		if err != nil {
			slog.Error("Failed to prune artwork cache", slog.String("error", err.Error()))
			return
		}
		if removed > 0 {
			slog.Debug("Pruned artwork cache", slog.Int("removed", removed))
		}
	})

	s.Every(24).Hours().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := art.RefreshToken(ctx); err != nil {
			slog.Error("Failed to refresh TVDB token", slog.String("error", err.Error()))
		}
	})

	slog.Info("Housekeeping jobs scheduled")

	return s
}
