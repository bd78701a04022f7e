package validation

import (
	"fmt"
	"strings"
)

// Severity orders validation findings by blocking power
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInfo:     "INFO",
	SeverityWarning:  "WARNING",
	SeverityError:    "ERROR",
	SeverityCritical: "CRITICAL",
}

// AllSeverities lists every severity from least to most blocking
func AllSeverities() []Severity {
	return []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// IsBlocking reports whether the severity invalidates its section
func (s Severity) IsBlocking() bool {
	return s >= SeverityError
}

// MarshalText encodes the severity by name
func (s Severity) MarshalText() ([]byte, error) {
	if _, ok := severityNames[s]; !ok {
		return nil, fmt.Errorf("unknown severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a severity name case-insensitively
func ParseSeverity(raw string) (Severity, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for s, n := range severityNames {
		if n == name {
			return s, nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", raw)
}

// MaxSeverity returns the most blocking of the given severities, INFO when empty
func MaxSeverity(severities ...Severity) Severity {
	highest := SeverityInfo
	for _, s := range severities {
		if s > highest {
			highest = s
		}
	}
	return highest
}
