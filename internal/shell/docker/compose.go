package docker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/artpar/stackgate/internal/core/catalog"
)

// =============================================================================
// Compose CLI Runner
// =============================================================================

// ComposeAction is a compose lifecycle subcommand.
type ComposeAction string

const (
	ComposeUp   ComposeAction = "up"
	ComposeDown ComposeAction = "down"
)

// ComposeRunner shells out to the docker compose CLI for per-service up and
// down. Compose has no SDK entry point, so this is the one place the
// boundary runs a subprocess.
type ComposeRunner struct {
	bin     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewComposeRunner creates a runner using the docker binary on PATH.
func NewComposeRunner(timeout time.Duration, logger *slog.Logger) *ComposeRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ComposeRunner{
		bin:     "docker",
		timeout: timeout,
		logger:  logger,
	}
}

// composeArgs builds the CLI argument list for one service action.
func composeArgs(project catalog.Project, action ComposeAction, service string) []string {
	args := []string{
		"compose",
		"-f", project.ComposePath(),
		"--env-file", project.EnvPath(),
		string(action),
	}
	if action == ComposeUp {
		args = append(args, "-d")
	}
	args = append(args, service)
	return args
}

// Run executes one compose action for one service, bounded by the
// configured timeout. Non-zero exit yields a RuntimeError carrying the
// captured stderr text; a deadline hit maps to ErrTimeout.
func (r *ComposeRunner) Run(ctx context.Context, project catalog.Project, action ComposeAction, service string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := composeArgs(project, action, service)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Dir = project.Dir
	cmd.Stderr = &stderr

	r.logger.Debug("running compose command",
		"project", project.Name,
		"service", service,
		"action", string(action),
	)

	err := cmd.Run()
	if err == nil {
		return nil
	}

	op := "ComposeUp"
	if action == ComposeDown {
		op = "ComposeDown"
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewRuntimeError(op, "compose", service,
			"command timed out after "+r.timeout.String(), ErrTimeout)
	}

	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		msg = err.Error()
	}
	return NewRuntimeError(op, "compose", service, msg, ErrCommandFailed)
}
