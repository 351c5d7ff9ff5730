package lifecycle

import (
	"context"
	"log/slog"
)

// =============================================================================
// Orphan Sweeper
// =============================================================================

// Sweeper removes running containers not accounted for by any declared
// service. Runs once per down pass, over the union of services resolved
// across all projects.
type Sweeper struct {
	runtime Runtime
	logger  *slog.Logger
}

// NewSweeper creates a sweeper.
func NewSweeper(runtime Runtime, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		runtime: runtime,
		logger:  logger,
	}
}

// Sweep removes every live container whose name is absent from
// declared ∪ ignoreDown and returns the removed names. Services ignored on
// down are exempt even when no current project declares them - intentionally
// retained infrastructure containers must not churn.
//
// Removal is best-effort: a per-name failure is logged and the sweep
// continues with the remaining orphans.
func (s *Sweeper) Sweep(ctx context.Context, declared, ignoreDown map[string]struct{}) []string {
	running, err := s.runtime.RunningContainers(ctx)
	if err != nil {
		s.logger.Error("failed to list running containers", "error", err)
		return nil
	}

	var orphans []string
	for _, name := range running {
		if _, ok := declared[name]; ok {
			continue
		}
		if _, ok := ignoreDown[name]; ok {
			continue
		}
		orphans = append(orphans, name)
	}

	if len(orphans) == 0 {
		return nil
	}

	s.logger.Warn("detected orphan containers", "containers", orphans)

	var removed []string
	for _, name := range orphans {
		if err := s.runtime.RemoveContainer(ctx, name); err != nil {
			s.logger.Error("could not remove orphan", "container", name, "error", err)
			continue
		}
		s.logger.Info("removed orphan", "container", name)
		removed = append(removed, name)
	}

	return removed
}
