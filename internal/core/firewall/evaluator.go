package firewall

import (
	"log/slog"
)

// =============================================================================
// Policy Evaluator
// =============================================================================

// Evaluator renders the single pass/fail gate decision from a policy
// snapshot. The three checks are independent and commutative so operators
// can enforce policy dimensions selectively; the final AND-with-block-veto
// ensures one explicit Block rule is never outvoted by permissive coverage
// elsewhere.
type Evaluator struct {
	flags    CheckFlags
	coverage Coverage
	required []int
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator enforcing the given checks over the
// given required ports. coverage selects backend rule strictness; an empty
// value means CoverageAny.
func NewEvaluator(flags CheckFlags, coverage Coverage, requiredPorts []int, logger *slog.Logger) *Evaluator {
	if coverage == "" {
		coverage = CoverageAny
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		flags:    flags,
		coverage: coverage,
		required: requiredPorts,
		logger:   logger,
	}
}

// Evaluate runs every enabled check against the snapshot. A disabled check
// contributes a vacuous pass, and a disabled backend check also forces
// AnyBlockingRule to false.
func (e *Evaluator) Evaluate(snap *Snapshot) GateResult {
	result := GateResult{
		ActiveProfileOK: true,
		BackendRulesOK:  true,
		PortsOK:         true,
	}

	if e.flags.ActiveProfile {
		result.ActiveProfileOK = e.EvaluateActiveProfile(snap.Profiles, snap.ActiveProfile)
	}
	if e.flags.BackendRules {
		result.BackendRulesOK, result.AnyBlockingRule = e.EvaluateBackendRules(snap.BackendRules)
	}
	if e.flags.Ports {
		result.PortsOK = e.EvaluatePortRules(MatchPorts(snap.PortRules, e.required))
	}

	result.Overall = result.ActiveProfileOK && result.BackendRulesOK && result.PortsOK && !result.AnyBlockingRule
	return result
}

// =============================================================================
// Active Profile Check
// =============================================================================

// EvaluateActiveProfile reports whether the host's active firewall profile
// is enabled. A profile missing from the map fails closed.
func (e *Evaluator) EvaluateActiveProfile(profiles map[ProfileName]bool, active ProfileName) bool {
	enabled := profiles[active]

	e.logger.Info("active network profile",
		"profile", string(active),
		"enabled", enabled,
	)

	return enabled
}

// =============================================================================
// Backend Rule Check
// =============================================================================

// EvaluateBackendRules partitions enabled Docker backend rules into allow
// and block buckets keyed by profile. Only Public and Private participate;
// Domain is excluded from this check.
//
// coverageOK follows the configured Coverage mode: CoverageAny passes when
// either profile has an enabled Allow rule, CoverageAll requires both.
// anyBlocked is true when either profile carries an enabled Block rule; a
// block always vetoes the overall gate regardless of allow coverage.
func (e *Evaluator) EvaluateBackendRules(rules []Rule) (coverageOK, anyBlocked bool) {
	allowed := make(map[ProfileName][]string)
	blocked := make(map[ProfileName][]string)

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.Action != ActionAllow && rule.Action != ActionBlock {
			continue
		}
		for _, profile := range []ProfileName{ProfilePublic, ProfilePrivate} {
			if !rule.Profiles.Has(profile) {
				continue
			}
			if rule.Action == ActionAllow {
				allowed[profile] = append(allowed[profile], rule.Label())
			} else {
				blocked[profile] = append(blocked[profile], rule.Label())
			}
		}
	}

	switch e.coverage {
	case CoverageAll:
		coverageOK = len(allowed[ProfilePublic]) > 0 && len(allowed[ProfilePrivate]) > 0
	default:
		coverageOK = len(allowed[ProfilePublic]) > 0 || len(allowed[ProfilePrivate]) > 0
	}
	anyBlocked = len(blocked[ProfilePublic]) > 0 || len(blocked[ProfilePrivate]) > 0

	e.logger.Info("docker backend rule scope", "coverage", string(e.coverage))
	for _, profile := range []ProfileName{ProfilePublic, ProfilePrivate} {
		switch {
		case len(blocked[profile]) > 0:
			e.logger.Warn("backend rules blocked",
				"profile", string(profile),
				"rules", blocked[profile],
			)
		case len(allowed[profile]) > 0:
			e.logger.Info("backend rules allowed",
				"profile", string(profile),
				"rules", allowed[profile],
			)
		default:
			e.logger.Info("no backend rules found", "profile", string(profile))
		}
	}

	return coverageOK, anyBlocked
}

// =============================================================================
// Port Rule Check
// =============================================================================

// EvaluatePortRules requires every required port to be found, enabled,
// allowed and scoped to all profiles. Any port failing any clause fails the
// whole check.
func (e *Evaluator) EvaluatePortRules(results map[int]PortCheckResult) bool {
	ok := true

	for _, port := range SortedPorts(results) {
		status := results[port]
		portOK := status.Found && status.Enabled && status.Action == ActionAllow && status.AppliesToAllProfiles
		ok = ok && portOK

		action := string(status.Action)
		if action == "" {
			action = "None"
		}
		scope := status.Profiles.String()
		if status.AppliesToAllProfiles {
			scope = "All"
		}
		e.logger.Info("inbound port rule",
			"port", port,
			"ok", portOK,
			"found", status.Found,
			"enabled", status.Enabled,
			"action", action,
			"profiles", scope,
			"matched_rules", status.MatchedRules,
		)
	}

	return ok
}
