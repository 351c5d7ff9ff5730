package winfw

import (
	"strings"
	"testing"

	"github.com/artpar/stackgate/internal/core/firewall"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Script Assembly Tests
// =============================================================================

func TestBuildScript_AllChecksEnabled(t *testing.T) {
	script := buildScript(firewall.CheckFlags{ActiveProfile: true, BackendRules: true, Ports: true}, []int{80, 443})

	assert.Contains(t, script, "Convert-FirewallProfile")
	assert.Contains(t, script, "Get-NetConnectionProfile")
	assert.Contains(t, script, "com.docker.backend.exe")
	assert.Contains(t, script, "@(80, 443)")
	assert.Contains(t, script, "ActiveProfile = $activeProfile")
	assert.Contains(t, script, "DockerRules = $dockerRules")
	assert.Contains(t, script, "PortRules = $portRules")
	assert.Contains(t, script, "ConvertTo-Json")
}

func TestBuildScript_DisabledChecksOmitted(t *testing.T) {
	script := buildScript(firewall.CheckFlags{BackendRules: true}, nil)

	assert.Contains(t, script, "com.docker.backend.exe")
	assert.NotContains(t, script, "Get-NetConnectionProfile")
	assert.NotContains(t, script, "Get-NetFirewallPortFilter")
	assert.NotContains(t, script, "ActiveProfile =")
	assert.NotContains(t, script, "PortRules =")
}

func TestBuildScript_SharedFunctionAlwaysIncluded(t *testing.T) {
	script := buildScript(firewall.CheckFlags{Ports: true}, []int{8080})

	assert.Contains(t, script, "Convert-FirewallProfile")
	assert.Contains(t, script, "@(8080)")
}

func TestBuildScript_OutputBlockIsLast(t *testing.T) {
	script := buildScript(firewall.CheckFlags{ActiveProfile: true}, nil)

	idx := strings.LastIndex(script, "[PSCustomObject]@{")
	assert.True(t, strings.Contains(script[idx:], "ConvertTo-Json"))
}
