package firewall

import (
	"sort"
	"strconv"
)

// =============================================================================
// Port Rule Matching
// =============================================================================

// MatchPorts evaluates the port rule set against each required port and
// returns one PortCheckResult per port.
//
// Merge semantics across matching rules are deliberately permissive:
//   - Found flips on the first match and stays set.
//   - Enabled is ORed - one enabled rule marks the port possibly exposed even
//     if another matching rule is disabled.
//   - Action keeps the first recognized Allow/Block; unrecognized actions
//     label the result Unknown but never overwrite a recognized one.
//   - AppliesToAllProfiles is set when any matching rule covers
//     Domain+Private+Public or carries the Any sentinel.
func MatchPorts(rules []Rule, required []int) map[int]PortCheckResult {
	results := make(map[int]PortCheckResult, len(required))

	for _, port := range required {
		result := PortCheckResult{
			Port:     port,
			Profiles: make(ProfileSet),
		}
		want := strconv.Itoa(port)

		for _, rule := range rules {
			if !ruleMatchesPort(rule, want) {
				continue
			}

			result.Found = true
			result.MatchedRules = append(result.MatchedRules, rule.Label())

			if rule.Enabled {
				result.Enabled = true
			}

			switch rule.Action {
			case ActionAllow, ActionBlock:
				if result.Action == "" || result.Action == ActionUnknown {
					result.Action = rule.Action
				}
			default:
				if result.Action == "" {
					result.Action = ActionUnknown
				}
			}

			result.Profiles.Union(rule.Profiles)

			if rule.Profiles.ContainsAll(ProfileDomain, ProfilePrivate, ProfilePublic) ||
				rule.Profiles.Has(ProfileAny) {
				result.AppliesToAllProfiles = true
			}
		}

		results[port] = result
	}

	return results
}

// ruleMatchesPort reports whether the rule's port list contains the port.
// Rules whose port data could not be decoded arrive with an empty list and
// never match - a malformed rule is skipped, not a scan failure.
func ruleMatchesPort(rule Rule, port string) bool {
	for _, p := range rule.Ports {
		if p == port {
			return true
		}
	}
	return false
}

// =============================================================================
// Profile Extraction
// =============================================================================

// ExtractProfiles collects the union of profile names across a rule list.
// Used for diagnostics only; the gate decision never consumes this.
func ExtractProfiles(rules []Rule) ProfileSet {
	s := make(ProfileSet)
	for _, rule := range rules {
		s.Union(rule.Profiles)
	}
	return s
}

// SortedPorts returns the result keys in ascending order, for stable
// diagnostic output.
func SortedPorts(results map[int]PortCheckResult) []int {
	ports := make([]int, 0, len(results))
	for p := range results {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}
