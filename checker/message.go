package checker

import (
	"strings"

	"github.com/totegamma/wbconstraints"
)

type ArgType string

const (
	ArgEntityID        ArgType = "entity"
	ArgEntityIDList    ArgType = "entity-list"
	ArgPropertyID      ArgType = "property"
	ArgDataValue       ArgType = "data-value"
	ArgConstraintScope ArgType = "constraint-scope"
	ArgLanguage        ArgType = "language"
	ArgNumber          ArgType = "number"
	ArgString          ArgType = "string"
)

type Role string

const (
	RoleSubject            Role = "subject"
	RolePredicate          Role = "predicate"
	RoleObject             Role = "object"
	RoleConstraintProperty Role = "constraint-property"
	RoleQualifierPredicate Role = "qualifier-predicate"
	RoleParameterProperty  Role = "constraint-parameter-property"
	RoleParameterValue     Role = "constraint-parameter-value"
	RoleConstraintTypeItem Role = "constraint-type-item"
)

type MessageArg struct {
	Type   ArgType  `json:"type"`
	Role   Role     `json:"role,omitempty"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// ViolationMessage is a message key with typed arguments. Rendering to
// human-readable text is left to the presentation layer.
type ViolationMessage struct {
	Key  string       `json:"key"`
	Args []MessageArg `json:"args,omitempty"`
}

func NewMessage(key string) *ViolationMessage {
	return &ViolationMessage{Key: key}
}

func (m *ViolationMessage) with(arg MessageArg) *ViolationMessage {
	out := &ViolationMessage{Key: m.Key, Args: append(append([]MessageArg{}, m.Args...), arg)}
	return out
}

func (m *ViolationMessage) WithEntityID(id wbconstraints.EntityID, role Role) *ViolationMessage {
	return m.with(MessageArg{Type: ArgEntityID, Role: role, Value: id.String()})
}

func (m *ViolationMessage) WithPropertyID(id wbconstraints.PropertyID, role Role) *ViolationMessage {
	return m.with(MessageArg{Type: ArgPropertyID, Role: role, Value: id.String()})
}

func (m *ViolationMessage) WithEntityIDList(ids []wbconstraints.EntityID, role Role) *ViolationMessage {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return m.with(MessageArg{Type: ArgEntityIDList, Role: role, Values: values})
}

func (m *ViolationMessage) WithPropertyIDList(ids []wbconstraints.PropertyID, role Role) *ViolationMessage {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return m.with(MessageArg{Type: ArgEntityIDList, Role: role, Values: values})
}

func (m *ViolationMessage) WithDataValue(v *wbconstraints.DataValue, role Role) *ViolationMessage {
	return m.with(MessageArg{Type: ArgDataValue, Role: role, Value: FormatDataValue(v)})
}

func (m *ViolationMessage) WithConstraintScope(t ContextType) *ViolationMessage {
	return m.with(MessageArg{Type: ArgConstraintScope, Value: string(t)})
}

func (m *ViolationMessage) WithContextTypes(ts []ContextType) *ViolationMessage {
	values := make([]string, len(ts))
	for i, t := range ts {
		values[i] = string(t)
	}
	return m.with(MessageArg{Type: ArgConstraintScope, Values: values})
}

func (m *ViolationMessage) WithString(s string) *ViolationMessage {
	return m.with(MessageArg{Type: ArgString, Value: s})
}

func (m *ViolationMessage) WithNumber(n string) *ViolationMessage {
	return m.with(MessageArg{Type: ArgNumber, Value: n})
}

// Render produces a plain fallback rendering such as
// "wbqc-violation-message-one-of(P1, Q2, [Q3, Q4])".
func (m *ViolationMessage) Render() string {
	if m == nil {
		return ""
	}
	parts := make([]string, 0, len(m.Args))
	for _, a := range m.Args {
		if a.Values != nil {
			parts = append(parts, "["+strings.Join(a.Values, ", ")+"]")
			continue
		}
		parts = append(parts, a.Value)
	}
	return m.Key + "(" + strings.Join(parts, ", ") + ")"
}

// FormatDataValue renders a data value compactly for message arguments.
func FormatDataValue(v *wbconstraints.DataValue) string {
	if v == nil {
		return ""
	}
	switch v.Type {
	case wbconstraints.ValueTypeEntityID:
		return v.EntityID.String()
	case wbconstraints.ValueTypeString:
		return v.String
	case wbconstraints.ValueTypeMonolingualText:
		if v.Monolingual != nil {
			return v.Monolingual.Text + "@" + v.Monolingual.Language
		}
	case wbconstraints.ValueTypeTime:
		if v.Time != nil {
			return v.Time.Time
		}
	case wbconstraints.ValueTypeQuantity:
		if v.Quantity != nil {
			return formatFloat(v.Quantity.Amount)
		}
	case wbconstraints.ValueTypeGlobeCoordinate:
		if v.Coordinate != nil {
			return formatFloat(v.Coordinate.Latitude) + "," + formatFloat(v.Coordinate.Longitude)
		}
	}
	return ""
}
