package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/artpar/stackgate/internal/core/catalog"
)

// =============================================================================
// Reconciler
// =============================================================================

// Reconciler executes up/down actions for declared services, honoring the
// per-direction ignore lists and timing every runtime invocation.
type Reconciler struct {
	runtime Runtime
	ignore  IgnoreLists
	logger  *slog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(runtime Runtime, ignore IgnoreLists, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		runtime: runtime,
		ignore:  ignore,
		logger:  logger,
	}
}

// RunAction performs one lifecycle action for one service.
//
// Ignore-list hits produce a skipped, succeeded outcome with zero duration
// and never touch the runtime. Down actions only invoke the runtime when the
// container is currently observed; an absent container is an
// already-satisfied outcome, not an error. Up actions always invoke - the
// underlying compose command is idempotent.
func (r *Reconciler) RunAction(ctx context.Context, project catalog.Project, service string, action Action) ActionOutcome {
	ref := ServiceRef{Project: project.Name, Name: service}
	outcome := ActionOutcome{
		Service:   ref,
		Action:    action,
		Succeeded: true,
	}

	if r.ignore.Ignored(action, service) {
		r.logger.Info("skipping ignored service",
			"project", project.Name,
			"service", service,
			"action", string(action),
		)
		outcome.Skipped = true
		return outcome
	}

	if action == ActionDown {
		exists, err := r.runtime.ContainerExists(ctx, service)
		if err != nil {
			r.logger.Error("container probe failed",
				"service", service,
				"error", err,
			)
		}
		if !exists {
			// Nothing to stop.
			return outcome
		}
	}

	r.logger.Info("running service action",
		"project", project.Name,
		"service", service,
		"action", string(action),
	)

	start := time.Now()
	var err error
	if action == ActionUp {
		err = r.runtime.ComposeUp(ctx, project, service)
	} else {
		err = r.runtime.ComposeDown(ctx, project, service)
	}
	outcome.Duration = time.Since(start)

	if err != nil {
		r.logger.Error("service action failed",
			"project", project.Name,
			"service", service,
			"action", string(action),
			"duration", outcome.Duration,
			"error", err,
		)
		outcome.Succeeded = false
	}

	return outcome
}

// RunMany performs the action for every service of every resolved project,
// in catalog order, and aggregates the outcomes into one report for the
// pass. AnyFailure is set when any non-skipped outcome failed.
func (r *Reconciler) RunMany(ctx context.Context, resolved []ResolvedProject, action Action) Report {
	var report Report
	start := time.Now()

	for _, rp := range resolved {
		for _, service := range rp.Services {
			outcome := r.RunAction(ctx, rp.Project, service, action)
			report.Outcomes = append(report.Outcomes, outcome)
			if !outcome.Skipped && !outcome.Succeeded {
				report.AnyFailure = true
			}
		}
	}

	report.TotalElapsed = time.Since(start)

	if report.AnyFailure {
		r.logger.Error("errors occurred during pass", "action", string(action))
	} else {
		r.logger.Info("pass completed", "action", string(action))
	}

	return report
}
