package checker

import (
	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/metadata"
)

type Status string

const (
	StatusCompliance    Status = "compliance"
	StatusViolation     Status = "violation"
	StatusWarning       Status = "warning"
	StatusSuggestion    Status = "suggestion"
	StatusException     Status = "exception"
	StatusBadParameters Status = "bad-parameters"
	StatusDeprecated    Status = "deprecated"
	StatusNotInScope    Status = "not-in-scope"
	StatusTodo          Status = "todo"

	// StatusNull marks a placeholder result that only carries metadata.
	StatusNull Status = "null"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusCompliance, StatusViolation, StatusWarning, StatusSuggestion, StatusException,
		StatusBadParameters, StatusDeprecated, StatusNotInScope, StatusTodo, StatusNull:
		return st, true
	}
	return "", false
}

// CheckResult is the outcome of evaluating one constraint at one context.
type CheckResult struct {
	Cursor     ContextCursor
	Constraint *Constraint
	Status     Status
	Message    *ViolationMessage
	Metadata   metadata.Metadata
}

func NewResult(cx Context, con Constraint, status Status, msg *ViolationMessage) CheckResult {
	return CheckResult{
		Cursor:     cx.Cursor(),
		Constraint: &con,
		Status:     status,
		Message:    msg,
	}
}

// NewNullResult builds a placeholder that carries metadata forward and must
// never be shown to a user.
func NewNullResult(cursor ContextCursor) CheckResult {
	return CheckResult{Cursor: cursor, Status: StatusNull}
}

func (r CheckResult) IsNull() bool {
	return r.Status == StatusNull
}

func (r CheckResult) EntityID() wbconstraints.EntityID {
	return r.Cursor.EntityID
}

// WithMetadata returns a copy of r carrying m.
func (r CheckResult) WithMetadata(m metadata.Metadata) CheckResult {
	r.Metadata = m
	return r
}

// WithMergedMetadata returns a copy of r with m merged into its metadata.
func (r CheckResult) WithMergedMetadata(m ...metadata.Metadata) CheckResult {
	r.Metadata = metadata.Merge(append([]metadata.Metadata{r.Metadata}, m...)...)
	return r
}

// MergeMetadata merges the metadata of all results.
func MergeMetadata(results []CheckResult) metadata.Metadata {
	items := make([]metadata.Metadata, len(results))
	for i, r := range results {
		items[i] = r.Metadata
	}
	return metadata.Merge(items...)
}
