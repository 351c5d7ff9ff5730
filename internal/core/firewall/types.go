// Package firewall contains pure functions for evaluating host firewall
// policy against the conditions a Docker deployment needs.
// This is part of the Functional Core - rule records arrive already parsed
// from the host query boundary, and nothing here performs I/O.
package firewall

import (
	"sort"
	"strings"
)

// =============================================================================
// Profile Types
// =============================================================================

// ProfileName identifies a host firewall profile.
type ProfileName string

const (
	ProfileDomain  ProfileName = "Domain"
	ProfilePrivate ProfileName = "Private"
	ProfilePublic  ProfileName = "Public"
	// ProfileAny is the sentinel the host uses for rules scoped to every profile.
	ProfileAny ProfileName = "Any"
)

// ProfileSet is a set of firewall profile names.
type ProfileSet map[ProfileName]struct{}

// NewProfileSet builds a set from the given names.
func NewProfileSet(names ...ProfileName) ProfileSet {
	s := make(ProfileSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the given profile.
func (s ProfileSet) Has(name ProfileName) bool {
	_, ok := s[name]
	return ok
}

// ContainsAll reports whether every given profile is in the set.
func (s ProfileSet) ContainsAll(names ...ProfileName) bool {
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

// Union adds all members of other into s.
func (s ProfileSet) Union(other ProfileSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Names returns the sorted member names.
func (s ProfileSet) Names() []ProfileName {
	names := make([]ProfileName, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// String renders the set as a comma-joined sorted list.
func (s ProfileSet) String() string {
	names := s.Names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ",")
}

// =============================================================================
// Rule Types
// =============================================================================

// Action is the disposition of a firewall rule.
type Action string

const (
	ActionAllow   Action = "Allow"
	ActionBlock   Action = "Block"
	ActionUnknown Action = "Unknown"
)

// Rule is a single inbound firewall rule as reported by the host query.
// Ports is empty for rules that carry no port filter (or whose port data
// could not be decoded - such rules simply never match any required port).
type Rule struct {
	Name        string
	DisplayName string
	Enabled     bool
	Action      Action
	Profiles    ProfileSet
	Ports       []string
}

// Label returns the human-readable identifier for diagnostics.
func (r Rule) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	if r.Name != "" {
		return r.Name
	}
	return "Unnamed"
}

// Snapshot is one host policy query result. Fields are populated only for
// the checks that were enabled when the query ran.
type Snapshot struct {
	ActiveProfile ProfileName
	Profiles      map[ProfileName]bool
	BackendRules  []Rule
	PortRules     []Rule
}

// =============================================================================
// Evaluation Results
// =============================================================================

// PortCheckResult holds the per-port verdict derived from the port rule set.
type PortCheckResult struct {
	Port                 int
	Found                bool
	Enabled              bool
	Action               Action
	AppliesToAllProfiles bool
	MatchedRules         []string
	Profiles             ProfileSet
}

// GateResult is the combined pass/fail decision across all enabled checks.
// Overall == ActiveProfileOK && BackendRulesOK && PortsOK && !AnyBlockingRule,
// where a disabled check contributes a vacuous pass.
type GateResult struct {
	ActiveProfileOK bool
	BackendRulesOK  bool
	PortsOK         bool
	AnyBlockingRule bool
	Overall         bool
}

// CheckFlags selects which policy dimensions are enforced. A disabled flag
// means "trust this dimension", not "only compute it".
type CheckFlags struct {
	ActiveProfile bool
	BackendRules  bool
	Ports         bool
}

// Any reports whether at least one check is enabled.
func (f CheckFlags) Any() bool {
	return f.ActiveProfile || f.BackendRules || f.Ports
}

// Coverage controls how backend rule coverage combines across profiles.
type Coverage string

const (
	// CoverageAny passes when either Public or Private has an enabled Allow rule.
	CoverageAny Coverage = "any"
	// CoverageAll requires both Public and Private to have an enabled Allow rule.
	CoverageAll Coverage = "all"
)

// ParseAction normalizes a raw action token. Unrecognized tokens map to
// ActionUnknown.
func ParseAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "allow":
		return ActionAllow
	case "block":
		return ActionBlock
	default:
		return ActionUnknown
	}
}

// ParseProfiles splits a comma-joined profile list into a set, trimming
// whitespace around each token. Empty tokens are kept out of the set.
func ParseProfiles(raw string) ProfileSet {
	s := make(ProfileSet)
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		s[ProfileName(tok)] = struct{}{}
	}
	return s
}
