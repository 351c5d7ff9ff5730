package docker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func skipIfNoDocker(t *testing.T) *Client {
	t.Helper()
	cli, err := NewClient("", time.Minute, nil)
	if err != nil {
		t.Skip("Docker not available:", err)
	}
	if err := cli.Ping(context.Background()); err != nil {
		cli.Close()
		t.Skip("Docker not reachable:", err)
	}
	return cli
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestNewClient_Success(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	assert.NotNil(t, cli)
}

func TestPing_Success(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	err := cli.Ping(context.Background())
	assert.NoError(t, err)
}

// =============================================================================
// Container Query Tests
// =============================================================================

func TestContainerExists_UnknownName(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	exists, err := cli.ContainerExists(context.Background(), "stackgate-test-does-not-exist")

	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunningContainers_Succeeds(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	_, err := cli.RunningContainers(context.Background())

	assert.NoError(t, err)
}

// =============================================================================
// Error Wrapping Tests
// =============================================================================

func TestRuntimeError_Format(t *testing.T) {
	err := NewRuntimeError("ComposeUp", "compose", "web", "exit status 1", ErrCommandFailed)

	assert.Equal(t, "ComposeUp compose web: exit status 1", err.Error())
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestRuntimeError_FormatWithoutID(t *testing.T) {
	err := NewRuntimeError("Ping", "", "", "daemon unreachable", ErrConnectionFailed)

	assert.Equal(t, "Ping: daemon unreachable", err.Error())
}
