// Package diag records degraded-parse events to a logger and a report.
package diag

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/blendkit/pkg/types"
)

// Recorder accumulates diagnostics during one parse. A nil *Recorder is
// valid and discards everything.
type Recorder struct {
	log    logrus.FieldLogger
	report *types.Report
}

// New creates a recorder. A nil logger discards log output.
func New(log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = Discard()
	}
	return &Recorder{log: log, report: types.NewReport()}
}

// Discard returns a logger that drops every entry.
func Discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Logger returns the underlying logger.
func (r *Recorder) Logger() logrus.FieldLogger {
	if r == nil {
		return Discard()
	}
	return r.log
}

// Report returns the collected diagnostics.
func (r *Recorder) Report() *types.Report {
	if r == nil {
		return nil
	}
	return r.report
}

// Record stores d and logs it.
func (r *Recorder) Record(d types.Diagnostic) {
	if r == nil {
		return
	}
	r.report.Add(d)

	entry := r.log.WithFields(logrus.Fields{
		"category": d.Category.String(),
	})
	if d.Structure != "" {
		entry = entry.WithField("structure", d.Structure)
	}
	if d.Field != "" {
		entry = entry.WithField("field", d.Field)
	}
	if d.Offset != 0 {
		entry = entry.WithField("offset", d.Offset)
	}
	if d.Expected != nil || d.Actual != nil {
		entry = entry.WithFields(logrus.Fields{"expected": d.Expected, "actual": d.Actual})
	}
	switch d.Severity {
	case types.SevError:
		entry.Error(d.Issue)
	case types.SevWarning:
		entry.Warn(d.Issue)
	default:
		entry.Debug(d.Issue)
	}
}

// Schema records a schema compile issue.
func (r *Recorder) Schema(sev types.Severity, structure, issue string, expected, actual interface{}) {
	r.Record(types.Diagnostic{
		Severity:  sev,
		Category:  types.DiagSchema,
		Structure: structure,
		Issue:     issue,
		Expected:  expected,
		Actual:    actual,
	})
}

// Link records a struct or field that could not be matched.
func (r *Recorder) Link(sev types.Severity, structure, field, issue string) {
	r.Record(types.Diagnostic{
		Severity:  sev,
		Category:  types.DiagLink,
		Structure: structure,
		Field:     field,
		Issue:     issue,
	})
}

// Chunk records a dropped or clipped chunk.
func (r *Recorder) Chunk(sev types.Severity, structure string, addr uint64, issue string) {
	r.Record(types.Diagnostic{
		Severity:  sev,
		Category:  types.DiagChunk,
		Structure: structure,
		Offset:    addr,
		Issue:     issue,
	})
}

// Pointer records a pointer that resolved to nothing.
func (r *Recorder) Pointer(structure, field string, addr uint64) {
	r.Record(types.Diagnostic{
		Severity:  types.SevInfo,
		Category:  types.DiagPointer,
		Structure: structure,
		Field:     field,
		Offset:    addr,
		Issue:     "unresolved pointer set to null",
	})
}
