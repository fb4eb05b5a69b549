package checker

import (
	"github.com/totegamma/wbconstraints"
)

// Parameters maps a parameter property to the snaks given for it.
type Parameters map[wbconstraints.PropertyID][]wbconstraints.Snak

// Constraint is a declarative rule attached to a property.
type Constraint struct {
	ID         string                   `json:"id"`
	PropertyID wbconstraints.PropertyID `json:"pid"`
	TypeID     wbconstraints.EntityID   `json:"type"`
	Parameters Parameters               `json:"parameters,omitempty"`
}

func (c Constraint) Parameter(pid wbconstraints.PropertyID) []wbconstraints.Snak {
	return c.Parameters[pid]
}
