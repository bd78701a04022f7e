package validation

import (
	"encoding/json"
	"fmt"
)

// Issue is a single validation finding. Issues are immutable once built;
// accessors return copies of slice fields.
type Issue struct {
	field         string
	code          string
	message       string
	userMessage   string
	severity      Severity
	actualValue   any
	expectedValue any
	suggestions   []string
}

// IssueOption configures optional issue attributes
type IssueOption func(*Issue)

// WithUserMessage sets the customer-facing message
func WithUserMessage(msg string) IssueOption {
	return func(i *Issue) {
		i.userMessage = msg
	}
}

// WithValues records the offending and the expected value
func WithValues(actual, expected any) IssueOption {
	return func(i *Issue) {
		i.actualValue = actual
		i.expectedValue = expected
	}
}

// WithSuggestions attaches suggested fixes
func WithSuggestions(suggestions ...string) IssueOption {
	return func(i *Issue) {
		i.suggestions = append(i.suggestions, suggestions...)
	}
}

// NewIssue creates an issue. The user message defaults to the technical one.
func NewIssue(field, code, message string, severity Severity, opts ...IssueOption) Issue {
	issue := Issue{
		field:    field,
		code:     code,
		message:  message,
		severity: severity,
	}
	for _, opt := range opts {
		opt(&issue)
	}
	if issue.userMessage == "" {
		issue.userMessage = message
	}
	return issue
}

func (i Issue) Field() string         { return i.field }
func (i Issue) Code() string          { return i.code }
func (i Issue) Message() string       { return i.message }
func (i Issue) UserMessage() string   { return i.userMessage }
func (i Issue) Severity() Severity    { return i.severity }
func (i Issue) ActualValue() any      { return i.actualValue }
func (i Issue) ExpectedValue() any    { return i.expectedValue }
func (i Issue) HasSuggestions() bool  { return len(i.suggestions) > 0 }
func (i Issue) IsBlocking() bool      { return i.severity.IsBlocking() }
func (i Issue) Suggestions() []string { return append([]string(nil), i.suggestions...) }

// IssueKey is the identity of an issue
type IssueKey struct {
	Field    string
	Code     string
	Severity Severity
}

// Key returns the (field, code, severity) identity
func (i Issue) Key() IssueKey {
	return IssueKey{Field: i.field, Code: i.code, Severity: i.severity}
}

// Equal compares issues by identity, ignoring messages and values
func (i Issue) Equal(other Issue) bool {
	return i.Key() == other.Key()
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s (%s)", i.severity, i.field, i.message, i.code)
}

type issueJSON struct {
	Field         string   `json:"field"`
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	UserMessage   string   `json:"userMessage"`
	Severity      Severity `json:"severity"`
	ActualValue   any      `json:"actualValue,omitempty"`
	ExpectedValue any      `json:"expectedValue,omitempty"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

// MarshalJSON exposes the issue fields
func (i Issue) MarshalJSON() ([]byte, error) {
	return json.Marshal(issueJSON{
		Field:         i.field,
		Code:          i.code,
		Message:       i.message,
		UserMessage:   i.userMessage,
		Severity:      i.severity,
		ActualValue:   i.actualValue,
		ExpectedValue: i.expectedValue,
		Suggestions:   i.suggestions,
	})
}
