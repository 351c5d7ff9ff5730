package winfw

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/artpar/stackgate/internal/core/firewall"
)

// =============================================================================
// Wire Types
// =============================================================================
// ConvertTo-Json collapses single-element arrays into bare objects, emits
// booleans as "True"/"False" strings and encodes port filters either as a
// plain string or as a {value: [...]} object. All of that is normalized here,
// once, so the core only ever sees typed records.

// listOf accepts either a JSON array or a single bare object.
type listOf[T any] []T

func (l *listOf[T]) UnmarshalJSON(data []byte) error {
	var many []T
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = []T{one}
	return nil
}

// portList accepts a port filter encoded as a string, a list of strings or
// numbers, or a {value: [...]} object. Malformed data decodes to an empty
// list - the rule then never matches a required port, it does not abort the
// scan.
type portList []string

func (p *portList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = []string{s}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		*p = decodePortValues(raw)
		return nil
	}

	var obj struct {
		Value []json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*p = decodePortValues(obj.Value)
		return nil
	}

	*p = nil
	return nil
}

func decodePortValues(raw []json.RawMessage) []string {
	var ports []string
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			ports = append(ports, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(r, &n); err == nil {
			ports = append(ports, strconv.Itoa(int(n)))
		}
	}
	return ports
}

// stringish accepts either a JSON string or a number.
type stringish string

func (s *stringish) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = stringish(str)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = stringish(strconv.Itoa(int(n)))
		return nil
	}
	*s = ""
	return nil
}

type rawProfile struct {
	Name    string `json:"Name"`
	Enabled string `json:"Enabled"`
}

type rawRule struct {
	Name        string   `json:"Name"`
	DisplayName string   `json:"DisplayName"`
	Enabled     string   `json:"Enabled"`
	Action      string   `json:"Action"`
	Profile     string   `json:"Profile"`
	LocalPort   portList `json:"LocalPort"`
}

type rawSnapshot struct {
	ActiveProfile stringish          `json:"ActiveProfile"`
	Profiles      listOf[rawProfile] `json:"Profiles"`
	DockerRules   listOf[rawRule]    `json:"DockerRules"`
	PortRules     listOf[rawRule]    `json:"PortRules"`
}

// =============================================================================
// Decoding
// =============================================================================

// DecodeSnapshot parses the query's JSON document into a typed policy
// snapshot. Keys are present only for the checks that were enabled.
func DecodeSnapshot(data []byte) (*firewall.Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewQueryError("DecodeSnapshot", "failed to parse query output as JSON", ErrMalformedOutput)
	}

	snap := &firewall.Snapshot{
		ActiveProfile: normalizeProfileName(string(raw.ActiveProfile)),
		Profiles:      make(map[firewall.ProfileName]bool, len(raw.Profiles)),
	}

	for _, p := range raw.Profiles {
		snap.Profiles[firewall.ProfileName(p.Name)] = isTrue(p.Enabled)
	}
	for _, r := range raw.DockerRules {
		snap.BackendRules = append(snap.BackendRules, convertRule(r))
	}
	for _, r := range raw.PortRules {
		snap.PortRules = append(snap.PortRules, convertRule(r))
	}

	return snap, nil
}

func convertRule(r rawRule) firewall.Rule {
	return firewall.Rule{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Enabled:     isTrue(r.Enabled),
		Action:      firewall.ParseAction(r.Action),
		Profiles:    firewall.ParseProfiles(r.Profile),
		Ports:       r.LocalPort,
	}
}

func isTrue(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// normalizeProfileName title-cases a raw profile token ("public" -> "Public").
func normalizeProfileName(raw string) firewall.ProfileName {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return firewall.ProfileName(strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:]))
}
