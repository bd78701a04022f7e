package validation

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Recommendation texts
const (
	RecommendContactSupport = "Critical issues found: contact support before proceeding"
	RecommendMustFix        = "Errors found: must fix before proceeding"
	RecommendReview         = "Warnings found: review, order can proceed"
	RecommendReady          = "Order is ready for processing"
)

// Statistics counts issues across a report
type Statistics struct {
	TotalIssues     int              `json:"totalIssues"`
	BySeverity      map[Severity]int `json:"bySeverity"`
	Sections        int              `json:"sections"`
	InvalidSections int              `json:"invalidSections"`
}

// DetailedValidationReport aggregates section results into one order verdict.
// Validity and severity are the monotonic maximum across all sections.
type DetailedValidationReport struct {
	orderID     string
	sections    map[string]Section
	generatedAt time.Time
}

// NewDetailedValidationReport creates an empty report for an order
func NewDetailedValidationReport(orderID string) *DetailedValidationReport {
	return &DetailedValidationReport{
		orderID:     orderID,
		sections:    make(map[string]Section),
		generatedAt: time.Now().UTC(),
	}
}

func (r *DetailedValidationReport) OrderID() string        { return r.orderID }
func (r *DetailedValidationReport) GeneratedAt() time.Time { return r.generatedAt }

// AddSection stores a section under name, replacing any previous one.
// Nil sections, typed nil pointers included, are ignored.
func (r *DetailedValidationReport) AddSection(name string, section Section) {
	if isNilSection(section) {
		return
	}
	r.sections[name] = section
}

func isNilSection(section Section) bool {
	if section == nil {
		return true
	}
	v := reflect.ValueOf(section)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Section returns the section stored under name
func (r *DetailedValidationReport) Section(name string) (Section, bool) {
	s, ok := r.sections[name]
	return s, ok
}

// SectionNames returns the section names in lexical order
func (r *DetailedValidationReport) SectionNames() []string {
	names := make([]string, 0, len(r.sections))
	for name := range r.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sections returns a copy of the section mapping
func (r *DetailedValidationReport) Sections() map[string]Section {
	out := make(map[string]Section, len(r.sections))
	for name, s := range r.sections {
		out[name] = s
	}
	return out
}

// Issues flattens all section issues, ordered by section name
func (r *DetailedValidationReport) Issues() []Issue {
	var issues []Issue
	for _, name := range r.SectionNames() {
		issues = append(issues, r.sections[name].Issues()...)
	}
	return issues
}

func (r *DetailedValidationReport) Verdict() Verdict   { return Evaluate(r.Issues()) }
func (r *DetailedValidationReport) IsValid() bool      { return r.Verdict().Valid }
func (r *DetailedValidationReport) Severity() Severity { return r.Verdict().Severity }

// Statistics derives issue counts by severity and section validity
func (r *DetailedValidationReport) Statistics() Statistics {
	issues := r.Issues()
	stats := Statistics{
		TotalIssues: len(issues),
		BySeverity:  CountBySeverity(issues),
		Sections:    len(r.sections),
	}
	for _, s := range r.sections {
		if !s.Verdict().Valid {
			stats.InvalidSections++
		}
	}
	return stats
}

// GenerateRecommendations derives customer-facing guidance from the issues
func (r *DetailedValidationReport) GenerateRecommendations() []string {
	counts := CountBySeverity(r.Issues())

	var recs []string
	if counts[SeverityCritical] > 0 {
		recs = append(recs, RecommendContactSupport)
	}
	if counts[SeverityError] > 0 {
		recs = append(recs, RecommendMustFix)
	}
	if counts[SeverityWarning] > 0 {
		recs = append(recs, RecommendReview)
	}
	for _, name := range r.SectionNames() {
		if !r.sections[name].Verdict().Valid {
			recs = append(recs, fmt.Sprintf("Fix %s issues", name))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, RecommendReady)
	}
	return recs
}

// RecoverySuggestions merges section guidance with per-issue suggestions,
// dropping duplicates.
func (r *DetailedValidationReport) RecoverySuggestions() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(items []string) {
		for _, s := range items {
			if _, ok := seen[s]; ok || s == "" {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}

	for _, name := range r.SectionNames() {
		section := r.sections[name]
		add(section.RecoverySuggestions())
		for _, issue := range section.Issues() {
			add(issue.Suggestions())
		}
	}
	return out
}

// Summary is a one-line description of the report outcome
func (r *DetailedValidationReport) Summary() string {
	verdict := r.Verdict()
	stats := r.Statistics()

	if stats.TotalIssues == 0 {
		return fmt.Sprintf("Order %s passed validation across %d sections", r.orderID, stats.Sections)
	}

	status := "passed"
	if !verdict.Valid {
		status = "failed"
	}
	return fmt.Sprintf("Order %s %s validation: %d issues (highest %s) in %d of %d sections invalid",
		r.orderID, status, stats.TotalIssues, verdict.Severity, stats.InvalidSections, stats.Sections)
}

// SectionView is the serialized form of a section
type SectionView struct {
	Name     string   `json:"name"`
	Valid    bool     `json:"valid"`
	Severity Severity `json:"severity"`
	State    State    `json:"state"`
	Summary  string   `json:"summary"`
	Issues   []Issue  `json:"issues,omitempty"`
}

// ReportView is the serialized form of a report
type ReportView struct {
	OrderID             string        `json:"orderId"`
	Valid               bool          `json:"valid"`
	Severity            Severity      `json:"severity"`
	Summary             string        `json:"summary"`
	Sections            []SectionView `json:"sections"`
	Recommendations     []string      `json:"recommendations"`
	RecoverySuggestions []string      `json:"recoverySuggestions,omitempty"`
	Statistics          Statistics    `json:"statistics"`
	GeneratedAt         time.Time     `json:"generatedAt"`
}

// View builds the serialized form. Raw issues are only included when detail is set.
func (r *DetailedValidationReport) View(detail bool) ReportView {
	verdict := r.Verdict()
	view := ReportView{
		OrderID:             r.orderID,
		Valid:               verdict.Valid,
		Severity:            verdict.Severity,
		Summary:             r.Summary(),
		Sections:            make([]SectionView, 0, len(r.sections)),
		Recommendations:     r.GenerateRecommendations(),
		RecoverySuggestions: r.RecoverySuggestions(),
		Statistics:          r.Statistics(),
		GeneratedAt:         r.generatedAt,
	}

	for _, name := range r.SectionNames() {
		s := r.sections[name]
		sv := s.Verdict()
		section := SectionView{
			Name:     name,
			Valid:    sv.Valid,
			Severity: sv.Severity,
			State:    sv.State,
			Summary:  s.Summary(),
		}
		if detail {
			section.Issues = s.Issues()
		}
		view.Sections = append(view.Sections, section)
	}
	return view
}
