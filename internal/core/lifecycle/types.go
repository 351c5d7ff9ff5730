// Package lifecycle drives per-service compose actions and aggregates their
// outcomes. Decision logic lives here; all container mutation goes through
// the Runtime interface.
package lifecycle

import (
	"context"
	"time"

	"github.com/artpar/stackgate/internal/core/catalog"
)

// =============================================================================
// Action Types
// =============================================================================

// Action is a lifecycle direction for a service.
type Action string

const (
	ActionUp   Action = "up"
	ActionDown Action = "down"
)

// ServiceRef identifies one service within one project. The (project, name)
// pair is the identity key for ignore lists, summary rows and orphan
// comparison.
type ServiceRef struct {
	Project string
	Name    string
}

// ActionOutcome records one attempted or skipped action. Immutable after
// creation; lifetime is one reconciliation pass.
type ActionOutcome struct {
	Service   ServiceRef
	Action    Action
	Duration  time.Duration
	Succeeded bool
	Skipped   bool
}

// Report aggregates the outcomes of one reconciliation pass.
type Report struct {
	Outcomes     []ActionOutcome
	AnyFailure   bool
	TotalElapsed time.Duration
}

// ResolvedProject pairs a project descriptor with its resolved service
// names, in catalog order.
type ResolvedProject struct {
	Project  catalog.Project
	Services []string
}

// =============================================================================
// Ignore Lists
// =============================================================================

// IgnoreLists holds the per-direction sets of service names excluded from
// reconciliation. Read-only during a run.
type IgnoreLists struct {
	Up   map[string]struct{}
	Down map[string]struct{}
}

// NewIgnoreLists builds ignore lists from configured name slices.
func NewIgnoreLists(up, down []string) IgnoreLists {
	return IgnoreLists{
		Up:   toSet(up),
		Down: toSet(down),
	}
}

// For returns the set matching the given action direction.
func (l IgnoreLists) For(action Action) map[string]struct{} {
	if action == ActionDown {
		return l.Down
	}
	return l.Up
}

// Ignored reports whether the service is excluded for the given direction.
func (l IgnoreLists) Ignored(action Action, service string) bool {
	_, ok := l.For(action)[service]
	return ok
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// =============================================================================
// Runtime Interface
// =============================================================================

// Runtime is the container runtime boundary the reconciler and sweeper
// depend on. Implemented by the shell docker package; tests use fakes.
type Runtime interface {
	// ContainerExists probes for a container by exact name, including
	// stopped ones.
	ContainerExists(ctx context.Context, name string) (bool, error)
	// ComposeUp starts one service of a project (idempotent).
	ComposeUp(ctx context.Context, project catalog.Project, service string) error
	// ComposeDown tears down one service of a project.
	ComposeDown(ctx context.Context, project catalog.Project, service string) error
	// RunningContainers lists the names of all currently running containers.
	RunningContainers(ctx context.Context) ([]string, error)
	// RemoveContainer force-removes a container by name.
	RemoveContainer(ctx context.Context, name string) error
}
