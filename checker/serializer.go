package checker

import (
	"github.com/totegamma/wbconstraints"
)

// StoredResult is the serialized form of a CheckResult. Changing it requires
// a new cache format version.
type StoredResult struct {
	Status           Status                   `json:"status"`
	Cursor           ContextCursor            `json:"context"`
	PropertyID       wbconstraints.PropertyID `json:"propertyId,omitempty"`
	ConstraintID     string                   `json:"constraintId,omitempty"`
	ConstraintTypeID wbconstraints.EntityID   `json:"constraintTypeId,omitempty"`
	Parameters       Parameters               `json:"parameters,omitempty"`
	Message          *ViolationMessage        `json:"message,omitempty"`
}

func SerializeResult(r CheckResult) StoredResult {
	out := StoredResult{
		Status:  r.Status,
		Cursor:  r.Cursor,
		Message: r.Message,
	}
	if r.Constraint != nil {
		out.PropertyID = r.Constraint.PropertyID
		out.ConstraintID = r.Constraint.ID
		out.ConstraintTypeID = r.Constraint.TypeID
		out.Parameters = r.Constraint.Parameters
	}
	return out
}

// DeserializeResult restores a result without metadata; the cache attaches
// the metadata of the whole entry on read.
func DeserializeResult(s StoredResult) CheckResult {
	r := CheckResult{
		Cursor:  s.Cursor,
		Status:  s.Status,
		Message: s.Message,
	}
	if s.ConstraintID != "" {
		r.Constraint = &Constraint{
			ID:         s.ConstraintID,
			PropertyID: s.PropertyID,
			TypeID:     s.ConstraintTypeID,
			Parameters: s.Parameters,
		}
	}
	return r
}

func SerializeResults(rs []CheckResult) []StoredResult {
	out := make([]StoredResult, len(rs))
	for i, r := range rs {
		out[i] = SerializeResult(r)
	}
	return out
}

func DeserializeResults(ss []StoredResult) []CheckResult {
	out := make([]CheckResult, len(ss))
	for i, s := range ss {
		out[i] = DeserializeResult(s)
	}
	return out
}
