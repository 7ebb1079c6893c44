// internal/workspace/errors.go
//
// Error taxonomy for workspace resolution.
//
// Context
// -------
// Resolution never fails fast.  Every structural, cross-field, and
// compatibility problem found in one pass is collected into a single
// Report so a user can fix the document in one edit cycle.  The only
// short-circuit is ParseError: once the source bytes cannot be decoded
// there is nothing left to check.
//
// Each Violation carries the document path, the violated rule, and the
// offending value, sufficient to fix the document without reading this
// package's source.
//
// Notes
// -----
//   - Report implements error so callers can treat the whole batch as one
//     failure while tooling iterates the individual violations.
//   - Oxford commas, two spaces after periods.
package workspace

import (
	"fmt"
	"strings"
)

// Kind classifies a violation per the resolution error taxonomy.
type Kind string

const (
	// KindValidation marks a structural schema violation (missing key,
	// wrong type, enum or pattern mismatch).
	KindValidation Kind = "validation"

	// KindCrossField marks a consistency rule the schema alone cannot
	// express, e.g. "s3 mode requires a bucket".
	KindCrossField Kind = "cross_field"

	// KindCompatibility marks a version-gate refusal.  High priority: the
	// document was authored for a different application version.
	KindCompatibility Kind = "compatibility"
)

// Violation is one problem found during resolution.
type Violation struct {
	Path    string `json:"path"` // dotted document path, e.g. "storage.s3.bucket"
	Kind    Kind   `json:"kind"`
	Rule    string `json:"rule"`            // machine-readable rule name, e.g. "required", "enum"
	Value   any    `json:"value,omitempty"` // offending value, nil when the field is absent
	Message string `json:"message"`
}

func (v Violation) Error() string {
	if v.Message != "" {
		return fmt.Sprintf("%s: %s", v.Path, v.Message)
	}
	return fmt.Sprintf("%s: rule %q violated", v.Path, v.Rule)
}

// Report aggregates every violation from one resolution attempt.
// A non-nil Report with zero violations is not an error.
type Report struct {
	Violations []Violation
	Warnings   []string // advisory notices, e.g. deprecated blocks
}

func (r *Report) add(vs ...Violation) { r.Violations = append(r.Violations, vs...) }

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Empty reports whether resolution found no violations.
func (r *Report) Empty() bool { return r == nil || len(r.Violations) == 0 }

// HasKind reports whether any violation of the given kind was collected.
func (r *Report) HasKind(k Kind) bool {
	for _, v := range r.Violations {
		if v.Kind == k {
			return true
		}
	}
	return false
}

// ByPath returns the violations recorded for one document path.
func (r *Report) ByPath(path string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Path == path {
			out = append(out, v)
		}
	}
	return out
}

func (r *Report) Error() string {
	if r.Empty() {
		return "workspace: no violations"
	}
	lines := make([]string, 0, len(r.Violations)+1)
	lines = append(lines, fmt.Sprintf("workspace configuration invalid (%d problem(s)):", len(r.Violations)))
	for _, v := range r.Violations {
		lines = append(lines, "  - "+v.Error())
	}
	return strings.Join(lines, "\n")
}

// ParseError wraps a source that is not a well-formed document.  Fatal,
// no partial result, and distinct from every Report outcome.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "workspace: parse document: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError reports that no workspace document exists at any of the
// searched locations.
type NotFoundError struct {
	Searched []string
}

func (e *NotFoundError) Error() string {
	return "workspace: no configuration file found; searched:\n  - " +
		strings.Join(e.Searched, "\n  - ")
}

// InactiveError is returned by Manager.CheckActive when a mutating
// operation is attempted against an inactive workspace.
type InactiveError struct {
	Workspace string
	Operation string
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("workspace %q is inactive, cannot perform operation %q", e.Workspace, e.Operation)
}

// FeatureDisabledError is returned by the feature guards when an
// integration is toggled off in the workspace document.
type FeatureDisabledError struct {
	Workspace string
	Feature   string
	Operation string
}

func (e *FeatureDisabledError) Error() string {
	return fmt.Sprintf("%s is disabled in workspace %q, cannot perform operation %q",
		e.Feature, e.Workspace, e.Operation)
}
