package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/artpar/stackgate/internal/core/catalog"
	"github.com/artpar/stackgate/internal/core/firewall"
	"github.com/artpar/stackgate/internal/core/lifecycle"
	"github.com/artpar/stackgate/internal/shell/docker"
	"github.com/artpar/stackgate/internal/shell/winfw"
	"github.com/google/uuid"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitPolicyGateError = 2
	ExitDockerError     = 3
	ExitReconcileError  = 4
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// policyQuerier is the host policy query boundary.
type policyQuerier interface {
	Supported() bool
	Query(ctx context.Context) (*firewall.Snapshot, error)
}

// runtimeClient is everything the runner needs from the container runtime.
type runtimeClient interface {
	lifecycle.Runtime
	Ping(ctx context.Context) error
	EnsureNetworks(ctx context.Context, names []string) error
	PruneImages(ctx context.Context) error
	Close() error
}

// =============================================================================
// Runner
// =============================================================================

// Runner wires the policy gate and lifecycle engines together and executes
// one full pass: gate, networks, down, orphan sweep, prune, up, summary.
// Execution is strictly sequential; the report is only ever appended to by
// this goroutine.
type Runner struct {
	config     *Config
	runtime    runtimeClient
	querier    policyQuerier
	evaluator  *firewall.Evaluator
	reconciler *lifecycle.Reconciler
	sweeper    *lifecycle.Sweeper
	ignore     lifecycle.IgnoreLists
	logger     *slog.Logger
}

// NewRunner creates a runner with the given config.
func NewRunner(cfg *Config, logger *slog.Logger) (*Runner, error) {
	client, err := docker.NewClient(cfg.Docker.Host, cfg.Docker.CommandTimeout, logger)
	if err != nil {
		return nil, err
	}

	flags := cfg.Firewall.CheckFlags()
	ignore := lifecycle.NewIgnoreLists(cfg.Ignore.Up, cfg.Ignore.Down)

	return &Runner{
		config:     cfg,
		runtime:    client,
		querier:    winfw.NewQuerier(flags, cfg.Firewall.RequiredPorts, cfg.Docker.CommandTimeout, logger),
		evaluator:  firewall.NewEvaluator(flags, cfg.Firewall.Coverage(), cfg.Firewall.RequiredPorts, logger),
		reconciler: lifecycle.NewReconciler(client, ignore, logger),
		sweeper:    lifecycle.NewSweeper(client, logger),
		ignore:     ignore,
		logger:     logger,
	}, nil
}

// Close releases the runtime connection.
func (r *Runner) Close() error {
	return r.runtime.Close()
}

// Run executes one full reconciliation pass and returns the process exit
// code. It never panics across this boundary; every failure is logged and
// folded into the aggregate result.
func (r *Runner) Run(ctx context.Context) int {
	logger := r.logger.With("run_id", uuid.NewString())
	start := time.Now()
	logger.Info("starting run")
	defer func() {
		logger.Info("run finished", "total_elapsed", lifecycle.FormatDuration(time.Since(start)))
	}()

	if err := r.runtime.Ping(ctx); err != nil {
		logger.Error("docker daemon is not reachable", "error", err)
		return ExitDockerError
	}
	logger.Info("docker daemon is active")

	if !r.evaluateGate(ctx, logger) {
		logger.Warn("policy gate failed, skipping container operations")
		return ExitPolicyGateError
	}

	if err := r.runtime.EnsureNetworks(ctx, uniqueNames(r.config.Docker.Networks)); err != nil {
		logger.Error("failed to ensure docker networks", "error", err)
		return ExitDockerError
	}

	resolved := r.resolveProjects(ctx, logger)

	downReport := r.reconciler.RunMany(ctx, resolved, lifecycle.ActionDown)
	r.logSummary(logger, downReport, lifecycle.ActionDown)

	r.sweeper.Sweep(ctx, declaredSet(resolved), r.ignore.Down)

	pruneFailed := false
	if r.config.Docker.PruneImages {
		if err := r.runtime.PruneImages(ctx); err != nil {
			logger.Error("failed to prune docker images", "error", err)
			pruneFailed = true
		}
	}

	upReport := r.reconciler.RunMany(ctx, resolved, lifecycle.ActionUp)
	r.logSummary(logger, upReport, lifecycle.ActionUp)

	switch {
	case downReport.AnyFailure || upReport.AnyFailure:
		return ExitReconcileError
	case pruneFailed:
		return ExitDockerError
	default:
		return ExitSuccess
	}
}

// =============================================================================
// Policy Gate
// =============================================================================

// evaluateGate queries the host policy and evaluates the enabled checks.
// Query failure closes the gate; no enabled checks or an unsupported host
// pass vacuously.
func (r *Runner) evaluateGate(ctx context.Context, logger *slog.Logger) bool {
	flags := r.config.Firewall.CheckFlags()

	if !flags.Any() {
		logger.Info("skipping policy gate, no checks enabled")
		return true
	}
	if !r.querier.Supported() {
		logger.Info("skipping policy gate, host firewall not queryable on this platform")
		return true
	}

	snap, err := r.querier.Query(ctx)
	if err != nil {
		logger.Error("host policy query failed, gate closed", "error", err)
		return false
	}

	result := r.evaluator.Evaluate(snap)
	logger.Info("policy gate evaluated",
		"active_profile_ok", result.ActiveProfileOK,
		"backend_rules_ok", result.BackendRulesOK,
		"ports_ok", result.PortsOK,
		"any_blocking_rule", result.AnyBlockingRule,
		"overall", result.Overall,
	)
	return result.Overall
}

// =============================================================================
// Project Resolution
// =============================================================================

// resolveProjects resolves every configured project's declared services.
// A failing project is logged and carried with an empty service list so the
// rest of the run continues.
func (r *Runner) resolveProjects(ctx context.Context, logger *slog.Logger) []lifecycle.ResolvedProject {
	var resolved []lifecycle.ResolvedProject
	for _, project := range r.config.CatalogProjects() {
		services, err := catalog.ResolveServices(ctx, project)
		if err != nil {
			logger.Error("failed to resolve project services",
				"project", project.Name,
				"error", err,
			)
		}
		resolved = append(resolved, lifecycle.ResolvedProject{
			Project:  project,
			Services: services,
		})
	}
	return resolved
}

// declaredSet is the union of all resolved service names across projects.
func declaredSet(resolved []lifecycle.ResolvedProject) map[string]struct{} {
	declared := make(map[string]struct{})
	for _, rp := range resolved {
		for _, svc := range rp.Services {
			declared[svc] = struct{}{}
		}
	}
	return declared
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var unique []string
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}
	return unique
}

// =============================================================================
// Summary Output
// =============================================================================

func (r *Runner) logSummary(logger *slog.Logger, report lifecycle.Report, action lifecycle.Action) {
	logger.Info("container timing summary",
		"action", string(action),
		"total", lifecycle.FormatDuration(report.TotalElapsed),
	)
	for _, line := range lifecycle.Summarize(report, action, r.ignore) {
		logger.Info(line)
	}
}
