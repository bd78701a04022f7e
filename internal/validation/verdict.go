package validation

import (
	"fmt"
	"strings"
)

// State is the lifecycle position of a section result
type State string

const (
	StateClean    State = "CLEAN"
	StateDegraded State = "DEGRADED"
	StateInvalid  State = "INVALID"
	StateBlocked  State = "BLOCKED"
)

// Verdict is the folded outcome of a list of issues
type Verdict struct {
	Valid    bool     `json:"valid"`
	Severity Severity `json:"severity"`
	State    State    `json:"state"`
}

// Evaluate folds issues into a verdict. Valid is false when any issue is
// ERROR or CRITICAL; severity is the maximum present, INFO when empty.
func Evaluate(issues []Issue) Verdict {
	verdict := Verdict{Valid: true, Severity: SeverityInfo, State: StateClean}
	if len(issues) == 0 {
		return verdict
	}

	for _, issue := range issues {
		verdict.Severity = MaxSeverity(verdict.Severity, issue.Severity())
	}
	verdict.Valid = !verdict.Severity.IsBlocking()

	switch verdict.Severity {
	case SeverityCritical:
		verdict.State = StateBlocked
	case SeverityError:
		verdict.State = StateInvalid
	default:
		verdict.State = StateDegraded
	}
	return verdict
}

// CountBySeverity tallies issues per severity, including zero counts
func CountBySeverity(issues []Issue) map[Severity]int {
	counts := make(map[Severity]int, len(severityNames))
	for _, s := range AllSeverities() {
		counts[s] = 0
	}
	for _, issue := range issues {
		counts[issue.Severity()]++
	}
	return counts
}

func summarize(name string, issues []Issue) string {
	verdict := Evaluate(issues)
	if verdict.State == StateClean {
		return fmt.Sprintf("%s validation passed with no issues", name)
	}

	counts := CountBySeverity(issues)
	var parts []string
	for i := len(AllSeverities()) - 1; i >= 0; i-- {
		s := AllSeverities()[i]
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], strings.ToLower(s.String())))
		}
	}

	status := "passed"
	if !verdict.Valid {
		status = "failed"
	}
	return fmt.Sprintf("%s validation %s: %s", name, status, strings.Join(parts, ", "))
}
