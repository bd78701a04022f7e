package validation

import (
	"github.com/shopspring/decimal"
)

// Section names used by the validator
const (
	SectionOrder        = "order"
	SectionItems        = "items"
	SectionDelivery     = "delivery"
	SectionPricing      = "pricing"
	SectionRushDelivery = "rushDelivery"
)

// DefaultTolerance is the absolute difference under which two amounts are equal
var DefaultTolerance = decimal.RequireFromString("0.01")

// Section is a named accumulator of issues
type Section interface {
	Name() string
	Issues() []Issue
	RecoverySuggestions() []string
	Verdict() Verdict
	Summary() string
}

// SectionResult stores issues and recovery suggestions for one concern.
// Verdict and summary are derived on every read, never cached.
type SectionResult struct {
	name        string
	issues      []Issue
	suggestions []string
}

// NewSectionResult creates an empty result
func NewSectionResult(name string) *SectionResult {
	return &SectionResult{name: name}
}

func (r *SectionResult) Name() string { return r.name }

// AddIssue records a finding
func (r *SectionResult) AddIssue(issue Issue) {
	r.issues = append(r.issues, issue)
}

// Add builds and records a finding
func (r *SectionResult) Add(field, code, message string, severity Severity, opts ...IssueOption) {
	r.AddIssue(NewIssue(field, code, message, severity, opts...))
}

// AddRecoverySuggestion records section-level guidance
func (r *SectionResult) AddRecoverySuggestion(suggestions ...string) {
	r.suggestions = append(r.suggestions, suggestions...)
}

// Issues returns a copy of the recorded issues
func (r *SectionResult) Issues() []Issue {
	return append([]Issue(nil), r.issues...)
}

// RecoverySuggestions returns a copy of the recorded suggestions
func (r *SectionResult) RecoverySuggestions() []string {
	return append([]string(nil), r.suggestions...)
}

func (r *SectionResult) HasIssues() bool     { return len(r.issues) > 0 }
func (r *SectionResult) Verdict() Verdict    { return Evaluate(r.issues) }
func (r *SectionResult) IsValid() bool       { return r.Verdict().Valid }
func (r *SectionResult) Severity() Severity  { return r.Verdict().Severity }
func (r *SectionResult) State() State        { return r.Verdict().State }
func (r *SectionResult) Summary() string     { return summarize(r.name, r.issues) }
func (r *SectionResult) IssueCount() int     { return len(r.issues) }

// OrderValidationResult covers order-level structure
type OrderValidationResult struct {
	*SectionResult
	OrderID string
}

func NewOrderValidationResult(orderID string) *OrderValidationResult {
	return &OrderValidationResult{SectionResult: NewSectionResult(SectionOrder), OrderID: orderID}
}

// OrderItemValidationResult covers the order lines
type OrderItemValidationResult struct {
	*SectionResult
	checkedLines int
}

func NewOrderItemValidationResult() *OrderItemValidationResult {
	return &OrderItemValidationResult{SectionResult: NewSectionResult(SectionItems)}
}

// MarkChecked counts one more inspected line
func (r *OrderItemValidationResult) MarkChecked() { r.checkedLines++ }

// CheckedLines returns how many lines were inspected
func (r *OrderItemValidationResult) CheckedLines() int { return r.checkedLines }

// DeliveryValidationResult covers recipient and address data
type DeliveryValidationResult struct {
	*SectionResult
}

func NewDeliveryValidationResult() *DeliveryValidationResult {
	return &DeliveryValidationResult{SectionResult: NewSectionResult(SectionDelivery)}
}

// PricingValidationResult covers money consistency. Every amount equality
// check goes through IsWithinTolerance.
type PricingValidationResult struct {
	*SectionResult
	tolerance decimal.Decimal
}

// NewPricingValidationResult creates a pricing result; a non-positive
// tolerance falls back to DefaultTolerance.
func NewPricingValidationResult(tolerance decimal.Decimal) *PricingValidationResult {
	if !tolerance.IsPositive() {
		tolerance = DefaultTolerance
	}
	return &PricingValidationResult{SectionResult: NewSectionResult(SectionPricing), tolerance: tolerance}
}

func (r *PricingValidationResult) Tolerance() decimal.Decimal { return r.tolerance }

// IsWithinTolerance is true iff |a-b| <= tolerance, boundary inclusive
func (r *PricingValidationResult) IsWithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(r.tolerance)
}

// CheckAmount records an issue when actual and expected differ beyond tolerance.
// It reports whether the amounts matched.
func (r *PricingValidationResult) CheckAmount(field, code, message string, actual, expected decimal.Decimal, severity Severity, opts ...IssueOption) bool {
	if r.IsWithinTolerance(actual, expected) {
		return true
	}
	opts = append([]IssueOption{WithValues(actual.String(), expected.String())}, opts...)
	r.Add(field, code, message, severity, opts...)
	return false
}

// RushDeliveryValidationResult covers expedited delivery eligibility
type RushDeliveryValidationResult struct {
	*SectionResult
	eligibleLines int
}

func NewRushDeliveryValidationResult() *RushDeliveryValidationResult {
	return &RushDeliveryValidationResult{SectionResult: NewSectionResult(SectionRushDelivery)}
}

func (r *RushDeliveryValidationResult) SetEligibleLines(n int) { r.eligibleLines = n }
func (r *RushDeliveryValidationResult) EligibleLines() int     { return r.eligibleLines }
