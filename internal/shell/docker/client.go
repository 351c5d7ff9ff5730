// Package docker is the container runtime boundary: a Docker SDK client for
// queries and mutations plus a compose CLI runner for per-service up/down.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/artpar/stackgate/internal/core/catalog"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
)

// =============================================================================
// Docker Client
// =============================================================================

// Client wraps the Docker SDK with the operations the reconciler and
// sweeper need. Every call is bounded by the configured command timeout so a
// hung daemon cannot stall the run indefinitely.
type Client struct {
	cli     *client.Client
	compose *ComposeRunner
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a Docker client. If host is empty, the default Docker
// host from the environment is used.
func NewClient(host string, commandTimeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if commandTimeout <= 0 {
		commandTimeout = 5 * time.Minute
	}

	var opts []client.Opt
	opts = append(opts, client.FromEnv)
	opts = append(opts, client.WithAPIVersionNegotiation())
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, NewRuntimeError("NewClient", "", "", "failed to create client", ErrConnectionFailed)
	}

	return &Client{
		cli:     cli,
		compose: NewComposeRunner(commandTimeout, logger),
		timeout: commandTimeout,
		logger:  logger,
	}, nil
}

// Ping checks if the Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if _, err := c.cli.Ping(ctx); err != nil {
		return NewRuntimeError("Ping", "", "", fmt.Sprintf("failed to ping docker: %v", err), ErrConnectionFailed)
	}
	return nil
}

// Close closes the Docker client connection.
func (c *Client) Close() error {
	return c.cli.Close()
}

// opContext derives a deadline-bounded context for one daemon call.
func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// =============================================================================
// Container Queries
// =============================================================================

// ContainerExists probes for a container by exact name, including stopped
// ones. The daemon's name filter matches substrings, so the result set is
// re-checked for equality.
func (c *Client) ContainerExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	f := filters.NewArgs()
	f.Add("name", name)

	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return false, NewRuntimeError("ContainerExists", "container", name, err.Error(), ErrCommandFailed)
	}

	for _, cn := range containers {
		for _, n := range cn.Names {
			if strings.TrimPrefix(n, "/") == name {
				return true, nil
			}
		}
	}
	return false, nil
}

// RunningContainers returns the names of all currently running containers.
func (c *Client) RunningContainers(ctx context.Context) ([]string, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	containers, err := c.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, NewRuntimeError("RunningContainers", "container", "", err.Error(), ErrCommandFailed)
	}

	var names []string
	for _, cn := range containers {
		if len(cn.Names) > 0 {
			names = append(names, strings.TrimPrefix(cn.Names[0], "/"))
		}
	}
	return names, nil
}

// RemoveContainer force-removes a container by name.
func (c *Client) RemoveContainer(ctx context.Context, name string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	err := c.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil {
		return NewRuntimeError("RemoveContainer", "container", name, err.Error(), ErrCommandFailed)
	}
	return nil
}

// =============================================================================
// Network Operations
// =============================================================================

// EnsureNetworks creates any of the given bridge networks that do not exist
// yet. Creation failures are collected; an error naming the failed networks
// is returned after every name has been attempted.
func (c *Client) EnsureNetworks(ctx context.Context, names []string) error {
	listCtx, cancel := c.opContext(ctx)
	networks, err := c.cli.NetworkList(listCtx, network.ListOptions{})
	cancel()
	if err != nil {
		return NewRuntimeError("EnsureNetworks", "network", "", err.Error(), ErrCommandFailed)
	}

	existing := make(map[string]struct{}, len(networks))
	for _, n := range networks {
		existing[n.Name] = struct{}{}
	}

	var failed []string
	for _, name := range names {
		if _, ok := existing[name]; ok {
			c.logger.Info("docker network already exists", "network", name)
			continue
		}

		createCtx, cancel := c.opContext(ctx)
		_, err := c.cli.NetworkCreate(createCtx, name, network.CreateOptions{Driver: "bridge"})
		cancel()
		if err != nil {
			c.logger.Error("failed to create docker network", "network", name, "error", err)
			failed = append(failed, name)
			continue
		}
		c.logger.Info("docker network created", "network", name)
	}

	if len(failed) > 0 {
		return NewRuntimeError("EnsureNetworks", "network", strings.Join(failed, ","),
			"some networks failed to create", ErrNetworkCreateFailed)
	}
	return nil
}

// =============================================================================
// Image Operations
// =============================================================================

// PruneImages removes all unused images, not just dangling ones.
func (c *Client) PruneImages(ctx context.Context) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	f := filters.NewArgs()
	f.Add("dangling", "false")

	report, err := c.cli.ImagesPrune(ctx, f)
	if err != nil {
		return NewRuntimeError("PruneImages", "image", "", err.Error(), ErrPruneFailed)
	}

	c.logger.Info("pruned docker images",
		"deleted", len(report.ImagesDeleted),
		"space_reclaimed", report.SpaceReclaimed,
	)
	return nil
}

// =============================================================================
// Compose Operations
// =============================================================================

// ComposeUp starts one service of a project via the compose CLI.
func (c *Client) ComposeUp(ctx context.Context, project catalog.Project, service string) error {
	return c.compose.Run(ctx, project, ComposeUp, service)
}

// ComposeDown tears down one service of a project via the compose CLI.
func (c *Client) ComposeDown(ctx context.Context, project catalog.Project, service string) error {
	return c.compose.Run(ctx, project, ComposeDown, service)
}
