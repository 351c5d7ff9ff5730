package winfw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/stackgate/internal/core/firewall"
)

// =============================================================================
// PowerShell Script Blocks
// =============================================================================
// The profile numbering and rule filters follow the Windows firewall
// cmdlets; blocks are assembled conditionally so a disabled check costs
// nothing on the host.

const sharedBlock = `
function Convert-FirewallProfile {
    param([int]$Profile)
    switch ($Profile) {
        1 { return "Domain" }
        2 { return "Private" }
        3 { return "Domain,Private" }
        4 { return "Public" }
        5 { return "Domain,Public" }
        6 { return "Private,Public" }
        7 { return "Domain,Private,Public" }
        0 { return "Any" }
        default { return "Unspecified" }
    }
}
`

const activeProfileBlock = `
$rawProfile = (Get-NetConnectionProfile | Select-Object -First 1).NetworkCategory
$activeProfile = switch ($rawProfile) {
    "Public"              { "Public" }
    "Private"             { "Private" }
    "DomainAuthenticated" { "Domain" }
    0                     { "Public" }
    1                     { "Private" }
    2                     { "Domain" }
    default               { "Unspecified" }
}

$profiles = Get-NetFirewallProfile | ForEach-Object {
    [PSCustomObject]@{
        Name    = [string]$_.Name
        Enabled = [string]$_.Enabled
    }
}
`

const backendRulesBlock = `
$dockerRules = Get-NetFirewallRule -Direction Inbound |
    Where-Object {
        ($_ | Get-NetFirewallApplicationFilter).Program -like "*com.docker.backend.exe"
    } | ForEach-Object {
        [PSCustomObject]@{
            Name        = [string]$_.Name
            DisplayName = [string]$_.DisplayName
            Enabled     = [string]$_.Enabled
            Action      = [string]$_.Action
            Profile     = Convert-FirewallProfile -Profile $_.Profile
        }
    }
`

const portRulesBlockTemplate = `
$REQUIRED_PORTS = @(%s)
$portRules = @()
$inboundRules = Get-NetFirewallRule -Direction Inbound | Where-Object {
    $_.Name -match "^\{.*\}$" -or $_.Group -eq $null
}
foreach ($rule in $inboundRules) {
    $portFilters = $rule | Get-NetFirewallPortFilter
    foreach ($portFilter in $portFilters) {
        if ($portFilter.Protocol -eq "TCP" -and $REQUIRED_PORTS -contains [int]$portFilter.LocalPort) {
            $decodedProfile = Convert-FirewallProfile -Profile $rule.Profile
            $portRules += [PSCustomObject]@{
                Name        = [string]$rule.Name
                DisplayName = [string]$rule.DisplayName
                Enabled     = [string]$rule.Enabled
                Action      = [string]$rule.Action
                Profile     = $decodedProfile
                Protocol    = [string]$portFilter.Protocol
                LocalPort   = [string]$portFilter.LocalPort
            }
        }
    }
}
`

// =============================================================================
// Querier
// =============================================================================

// Querier extracts firewall metadata from the host in a single PowerShell
// invocation, assembled from the blocks matching the enabled checks.
type Querier struct {
	flags   firewall.CheckFlags
	ports   []int
	timeout time.Duration
	logger  *slog.Logger
}

// NewQuerier creates a querier for the given checks and required ports.
func NewQuerier(flags firewall.CheckFlags, requiredPorts []int, timeout time.Duration, logger *slog.Logger) *Querier {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Querier{
		flags:   flags,
		ports:   requiredPorts,
		timeout: timeout,
		logger:  logger,
	}
}

// Supported reports whether the host firewall is queryable on this platform.
func (q *Querier) Supported() bool {
	return runtime.GOOS == "windows"
}

// Query runs the assembled script and decodes its JSON output. Non-zero
// exit or unparseable output yields a QueryError; callers must treat that as
// a closed gate.
func (q *Querier) Query(ctx context.Context) (*firewall.Snapshot, error) {
	script := buildScript(q.flags, q.ports)

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	q.logger.Info("extracting host firewall metadata")
	start := time.Now()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewQueryError("Query", "query timed out after "+q.timeout.String(), ErrQueryFailed)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, NewQueryError("Query", msg, ErrQueryFailed)
	}

	q.logger.Info("host firewall metadata extracted", "duration", time.Since(start))

	return DecodeSnapshot(stdout.Bytes())
}

// buildScript assembles the PowerShell script for the enabled checks.
func buildScript(flags firewall.CheckFlags, ports []int) string {
	blocks := []string{sharedBlock}
	var outputs []string

	if flags.ActiveProfile {
		blocks = append(blocks, activeProfileBlock)
		outputs = append(outputs, "ActiveProfile = $activeProfile", "Profiles = $profiles")
	}
	if flags.BackendRules {
		blocks = append(blocks, backendRulesBlock)
		outputs = append(outputs, "DockerRules = $dockerRules")
	}
	if flags.Ports {
		portTokens := make([]string, len(ports))
		for i, p := range ports {
			portTokens[i] = strconv.Itoa(p)
		}
		blocks = append(blocks, fmt.Sprintf(portRulesBlockTemplate, strings.Join(portTokens, ", ")))
		outputs = append(outputs, "PortRules = $portRules")
	}

	return strings.Join(blocks, "\n") +
		"\n[PSCustomObject]@{\n    " + strings.Join(outputs, "\n    ") + "\n} | ConvertTo-Json -Depth 3"
}
