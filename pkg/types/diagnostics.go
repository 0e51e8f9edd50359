package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// -----------------------------------------------------------------------------
// Diagnostics for degraded parses
// -----------------------------------------------------------------------------
//
// A parse that succeeds may still have dropped data: fields with no
// counterpart in the file, structs whose declared size disagrees with their
// members, pointers that resolve to nothing. Each such event becomes a
// Diagnostic in the file's Report.

// Severity classifies how serious a diagnostic issue is.
type Severity int

const (
	SevInfo    Severity = iota // expected difference between versions
	SevWarning                 // data was zeroed or dropped
	SevError                   // schema or chunk is inconsistent
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// DiagCategory classifies the stage that produced an issue.
type DiagCategory int

const (
	DiagSchema  DiagCategory = iota // schema compile (misaligned, limits)
	DiagLink                        // struct/field matching
	DiagChunk                       // chunk dropped or clipped
	DiagPointer                     // unresolved pointer
)

func (c DiagCategory) String() string {
	switch c {
	case DiagSchema:
		return "schema"
	case DiagLink:
		return "link"
	case DiagChunk:
		return "chunk"
	case DiagPointer:
		return "pointer"
	}
	return "unknown"
}

// Diagnostic is a single recorded issue.
type Diagnostic struct {
	Severity  Severity     `json:"severity"`
	Category  DiagCategory `json:"category"`
	Structure string       `json:"structure,omitempty"`
	Field     string       `json:"field,omitempty"`
	Offset    uint64       `json:"offset,omitempty"` // chunk old address or byte offset
	Issue     string       `json:"issue"`
	Expected  interface{}  `json:"expected,omitempty"`
	Actual    interface{}  `json:"actual,omitempty"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s/%s]", d.Severity, d.Category)
	if d.Structure != "" {
		b.WriteString(" " + d.Structure)
		if d.Field != "" {
			b.WriteString("." + d.Field)
		}
	}
	b.WriteString(": " + d.Issue)
	if d.Expected != nil || d.Actual != nil {
		fmt.Fprintf(&b, " (expected %v, got %v)", d.Expected, d.Actual)
	}
	return b.String()
}

// Report collects the diagnostics of one parse.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Summary     DiagSummary  `json:"summary"`

	ByCategory map[DiagCategory][]Diagnostic `json:"-"`
}

// DiagSummary provides quick statistics.
type DiagSummary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{ByCategory: make(map[DiagCategory][]Diagnostic)}
}

// Add appends d and updates the summary.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	switch d.Severity {
	case SevError:
		r.Summary.Errors++
	case SevWarning:
		r.Summary.Warnings++
	case SevInfo:
		r.Summary.Info++
	}
	r.ByCategory[d.Category] = append(r.ByCategory[d.Category], d)
}

// Len returns the number of diagnostics.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics)
}

// HasErrors reports whether any SevError diagnostic was recorded.
func (r *Report) HasErrors() bool { return r != nil && r.Summary.Errors > 0 }

// Filter returns the diagnostics of category c.
func (r *Report) Filter(c DiagCategory) []Diagnostic {
	if r == nil {
		return nil
	}
	return r.ByCategory[c]
}

// FormatJSON formats the report as indented JSON.
func (r *Report) FormatJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatText renders one line per diagnostic, grouped by category.
func (r *Report) FormatText() string {
	if r.Len() == 0 {
		return "no issues\n"
	}
	cats := make([]DiagCategory, 0, len(r.ByCategory))
	for c := range r.ByCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "%d issue(s): %d error(s), %d warning(s), %d info\n",
		r.Len(), r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)
	for _, c := range cats {
		fmt.Fprintf(&b, "%s:\n", c)
		for _, d := range r.ByCategory[c] {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}
	return b.String()
}
