package lifecycle

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// Run Summary
// =============================================================================

// Summarize renders one report line per outcome, sorted by duration
// descending. Services on the ignore list for the action just performed are
// annotated with a SKIPPED marker. Purely presentational; no decision logic.
func Summarize(report Report, action Action, ignore IgnoreLists) []string {
	if len(report.Outcomes) == 0 {
		return []string{"no services were processed"}
	}

	outcomes := make([]ActionOutcome, len(report.Outcomes))
	copy(outcomes, report.Outcomes)
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Duration > outcomes[j].Duration
	})

	lines := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		status := "OK"
		if !o.Succeeded {
			status = "FAIL"
		}
		readable := FormatDuration(o.Duration)
		if ignore.Ignored(action, o.Service.Name) {
			readable += " SKIPPED"
		}
		lines = append(lines, fmt.Sprintf("%-4s %-20s %s", status, o.Service.Name, readable))
	}

	return lines
}

// =============================================================================
// Duration Formatting
// =============================================================================

// FormatDuration renders a duration as a human-readable list of units, down
// to milliseconds. Seconds are always shown when no larger unit applies, so
// a zero duration reads "0 seconds".
func FormatDuration(d time.Duration) string {
	totalDays := int(d.Hours()) / 24
	years := totalDays / 365
	months := (totalDays % 365) / 30
	days := (totalDays % 365) % 30
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	var parts []string
	appendUnit := func(n int, unit string) {
		if n == 1 {
			parts = append(parts, fmt.Sprintf("1 %s", unit))
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", n, unit))
		}
	}

	if years > 0 {
		appendUnit(years, "year")
	}
	if months > 0 {
		appendUnit(months, "month")
	}
	if days > 0 {
		appendUnit(days, "day")
	}
	if hours > 0 {
		appendUnit(hours, "hour")
	}
	if minutes > 0 {
		appendUnit(minutes, "minute")
	}

	noLargerUnits := len(parts) == 0
	if seconds > 0 || noLargerUnits {
		appendUnit(seconds, "second")
	}
	if milliseconds > 0 {
		appendUnit(milliseconds, "millisecond")
	}

	return strings.Join(parts, ", ")
}
