package firewall

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newTestEvaluator(flags CheckFlags, coverage Coverage, ports ...int) *Evaluator {
	return NewEvaluator(flags, coverage, ports, nil)
}

func backendRule(action Action, enabled bool, profiles ...ProfileName) Rule {
	return Rule{
		Name:        "docker-backend",
		DisplayName: "Docker Desktop Backend",
		Enabled:     enabled,
		Action:      action,
		Profiles:    NewProfileSet(profiles...),
	}
}

// =============================================================================
// EvaluateActiveProfile Tests
// =============================================================================

func TestEvaluateActiveProfile_Enabled(t *testing.T) {
	e := newTestEvaluator(CheckFlags{ActiveProfile: true}, CoverageAny)
	profiles := map[ProfileName]bool{ProfilePublic: true, ProfilePrivate: false}

	assert.True(t, e.EvaluateActiveProfile(profiles, ProfilePublic))
}

func TestEvaluateActiveProfile_Disabled(t *testing.T) {
	e := newTestEvaluator(CheckFlags{ActiveProfile: true}, CoverageAny)
	profiles := map[ProfileName]bool{ProfilePrivate: false}

	assert.False(t, e.EvaluateActiveProfile(profiles, ProfilePrivate))
}

func TestEvaluateActiveProfile_MissingFailsClosed(t *testing.T) {
	e := newTestEvaluator(CheckFlags{ActiveProfile: true}, CoverageAny)

	assert.False(t, e.EvaluateActiveProfile(map[ProfileName]bool{}, ProfileDomain))
}

// =============================================================================
// EvaluateBackendRules Tests
// =============================================================================

func TestEvaluateBackendRules_AllowOnPublicCoversAny(t *testing.T) {
	e := newTestEvaluator(CheckFlags{BackendRules: true}, CoverageAny)
	rules := []Rule{backendRule(ActionAllow, true, ProfilePublic)}

	coverageOK, anyBlocked := e.EvaluateBackendRules(rules)

	assert.True(t, coverageOK)
	assert.False(t, anyBlocked)
}

func TestEvaluateBackendRules_AllowOnPrivateCoversAny(t *testing.T) {
	e := newTestEvaluator(CheckFlags{BackendRules: true}, CoverageAny)
	rules := []Rule{backendRule(ActionAllow, true, ProfilePrivate)}

	coverageOK, _ := e.EvaluateBackendRules(rules)

	assert.True(t, coverageOK)
}

func TestEvaluateBackendRules_CoverageAllRequiresBothProfiles(t *testing.T) {
	e := newTestEvaluator(CheckFlags{BackendRules: true}, CoverageAll)
	onlyPublic := []Rule{backendRule(ActionAllow, true, ProfilePublic)}

	coverageOK, _ := e.EvaluateBackendRules(onlyPublic)
	assert.False(t, coverageOK)

	both := []Rule{
		backendRule(ActionAllow, true, ProfilePublic),
		backendRule(ActionAllow, true, ProfilePrivate),
	}
	coverageOK, _ = e.EvaluateBackendRules(both)
	assert.True(t, coverageOK)
}

func TestEvaluateBackendRules_EnabledBlockVetoes(t *testing.T) {
	e := newTestEvaluator(CheckFlags{BackendRules: true}, CoverageAny)
	rules := []Rule{
		backendRule(ActionAllow, true, ProfilePublic),
		backendRule(ActionBlock, true, ProfilePrivate),
	}

	coverageOK, anyBlocked := e.EvaluateBackendRules(rules)

	assert.True(t, coverageOK)
	assert.True(t, anyBlocked)
}

func TestEvaluateBackendRules_DisabledBlockIgnored(t *testing.T) {
	e := newTestEvaluator(CheckFlags{BackendRules: true}, CoverageAny)
	rules := []Rule{
		backendRule(ActionAllow, true, ProfilePublic),
		backendRule(ActionBlock, false, ProfilePublic),
	}

	_, anyBlocked := e.EvaluateBackendRules(rules)

	assert.False(t, anyBlocked)
}

func TestEvaluateBackendRules_DomainExcluded(t *testing.T) {
	e := newTestEvaluator(CheckFlags{BackendRules: true}, CoverageAny)
	rules := []Rule{
		backendRule(ActionAllow, true, ProfileDomain),
		backendRule(ActionBlock, true, ProfileDomain),
	}

	coverageOK, anyBlocked := e.EvaluateBackendRules(rules)

	assert.False(t, coverageOK)
	assert.False(t, anyBlocked)
}

func TestEvaluateBackendRules_UnknownActionIgnored(t *testing.T) {
	e := newTestEvaluator(CheckFlags{BackendRules: true}, CoverageAny)
	rules := []Rule{backendRule(ActionUnknown, true, ProfilePublic)}

	coverageOK, anyBlocked := e.EvaluateBackendRules(rules)

	assert.False(t, coverageOK)
	assert.False(t, anyBlocked)
}

// =============================================================================
// EvaluatePortRules Tests
// =============================================================================

func TestEvaluatePortRules_AllClausesRequired(t *testing.T) {
	e := newTestEvaluator(CheckFlags{Ports: true}, CoverageAny, 80)

	results := map[int]PortCheckResult{
		80: {Port: 80, Found: true, Enabled: true, Action: ActionAllow, AppliesToAllProfiles: true},
	}
	assert.True(t, e.EvaluatePortRules(results))

	for name, mutate := range map[string]func(*PortCheckResult){
		"not found":        func(r *PortCheckResult) { r.Found = false },
		"not enabled":      func(r *PortCheckResult) { r.Enabled = false },
		"blocked":          func(r *PortCheckResult) { r.Action = ActionBlock },
		"not all profiles": func(r *PortCheckResult) { r.AppliesToAllProfiles = false },
	} {
		r := results[80]
		mutate(&r)
		assert.False(t, e.EvaluatePortRules(map[int]PortCheckResult{80: r}), name)
	}
}

func TestEvaluatePortRules_OneFailingPortFailsAll(t *testing.T) {
	e := newTestEvaluator(CheckFlags{Ports: true}, CoverageAny, 80, 443)

	results := map[int]PortCheckResult{
		80:  {Port: 80, Found: true, Enabled: true, Action: ActionAllow, AppliesToAllProfiles: true},
		443: {Port: 443},
	}

	assert.False(t, e.EvaluatePortRules(results))
}

// =============================================================================
// Evaluate Tests
// =============================================================================

func TestEvaluate_AllChecksDisabledPassesVacuously(t *testing.T) {
	e := newTestEvaluator(CheckFlags{}, CoverageAny)
	snap := &Snapshot{
		BackendRules: []Rule{backendRule(ActionBlock, true, ProfilePublic)},
	}

	result := e.Evaluate(snap)

	assert.True(t, result.ActiveProfileOK)
	assert.True(t, result.BackendRulesOK)
	assert.True(t, result.PortsOK)
	assert.False(t, result.AnyBlockingRule)
	assert.True(t, result.Overall)
}

func TestEvaluate_BlockRuleFailsOverallDespiteCoverage(t *testing.T) {
	e := newTestEvaluator(CheckFlags{BackendRules: true}, CoverageAny)
	snap := &Snapshot{
		BackendRules: []Rule{
			backendRule(ActionAllow, true, ProfilePublic),
			backendRule(ActionBlock, true, ProfilePublic),
		},
	}

	result := e.Evaluate(snap)

	assert.True(t, result.BackendRulesOK)
	assert.True(t, result.AnyBlockingRule)
	assert.False(t, result.Overall)
}

func TestEvaluate_OverallInvariant(t *testing.T) {
	e := newTestEvaluator(CheckFlags{ActiveProfile: true, BackendRules: true, Ports: true}, CoverageAny, 80)
	snap := &Snapshot{
		ActiveProfile: ProfilePublic,
		Profiles:      map[ProfileName]bool{ProfilePublic: true},
		BackendRules:  []Rule{backendRule(ActionAllow, true, ProfilePublic)},
		PortRules:     []Rule{allowRule("http", true, allProfiles(), "80")},
	}

	result := e.Evaluate(snap)

	assert.Equal(t,
		result.ActiveProfileOK && result.BackendRulesOK && result.PortsOK && !result.AnyBlockingRule,
		result.Overall,
	)
	assert.True(t, result.Overall)
}

func TestEvaluate_PortScenarioOnlyPort80Allowed(t *testing.T) {
	// Required ports 80 and 443; only 80 has an all-profile Allow rule.
	e := newTestEvaluator(CheckFlags{Ports: true}, CoverageAny, 80, 443)
	snap := &Snapshot{
		PortRules: []Rule{allowRule("http", true, allProfiles(), "80")},
	}

	result := e.Evaluate(snap)

	assert.False(t, result.PortsOK)
	assert.False(t, result.Overall)

	portResults := MatchPorts(snap.PortRules, []int{80, 443})
	assert.False(t, portResults[443].Found)
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	e := newTestEvaluator(CheckFlags{ActiveProfile: true, BackendRules: true}, CoverageAny)
	snap := &Snapshot{
		ActiveProfile: ProfilePrivate,
		Profiles:      map[ProfileName]bool{ProfilePrivate: true},
		BackendRules:  []Rule{backendRule(ActionAllow, true, ProfilePrivate)},
	}

	first := e.Evaluate(snap)
	second := e.Evaluate(snap)

	assert.Equal(t, first, second)
}
