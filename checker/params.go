package checker

import (
	"slices"
	"strings"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/schemas"
)

// Relation selects which statements of the subject are followed for type checks.
type Relation string

const (
	RelationInstance           Relation = "instance"
	RelationSubclass           Relation = "subclass"
	RelationInstanceOrSubclass Relation = "instanceOrSubclass"
)

func (r Relation) Properties() []wbconstraints.PropertyID {
	switch r {
	case RelationInstance:
		return []wbconstraints.PropertyID{schemas.InstanceOfProperty}
	case RelationSubclass:
		return []wbconstraints.PropertyID{schemas.SubclassOfProperty}
	default:
		return []wbconstraints.PropertyID{schemas.InstanceOfProperty, schemas.SubclassOfProperty}
	}
}

// ItemValue is an item parameter, which may also be "some value" or "no value".
type ItemValue struct {
	Type wbconstraints.SnakType
	ID   wbconstraints.EntityID
}

func (v ItemValue) Matches(s wbconstraints.Snak) bool {
	if v.Type != s.Type {
		return false
	}
	if v.Type != wbconstraints.SnakValue {
		return true
	}
	id, ok := s.EntityIDValue()
	return ok && id == v.ID
}

func (v ItemValue) String() string {
	if v.Type == wbconstraints.SnakValue {
		return v.ID.String()
	}
	return string(v.Type)
}

// Bound is one end of a range parameter. Now is set for a "some value" date
// bound, which stands for the current time.
type Bound struct {
	Value *wbconstraints.DataValue
	Now   bool
}

func (b *Bound) IsSet() bool {
	return b != nil && (b.Value != nil || b.Now)
}

// ConstraintStatus is the severity declared by the constraint status parameter.
type ConstraintStatus int

const (
	SeverityNormal ConstraintStatus = iota
	SeverityMandatory
	SeveritySuggestion
)

func paramError(key string, con Constraint, pid wbconstraints.PropertyID) *ParameterError {
	return NewParameterError(NewMessage(key).
		WithEntityID(con.TypeID, RoleConstraintTypeItem).
		WithPropertyID(pid, RoleParameterProperty))
}

func requireSingle(con Constraint, pid wbconstraints.PropertyID) (wbconstraints.Snak, *ParameterError) {
	snaks := con.Parameter(pid)
	switch len(snaks) {
	case 0:
		return wbconstraints.Snak{}, paramError("wbqc-violation-message-parameter-needed", con, pid)
	case 1:
		return snaks[0], nil
	default:
		return wbconstraints.Snak{}, paramError("wbqc-violation-message-parameter-single", con, pid)
	}
}

func parseItem(con Constraint, pid wbconstraints.PropertyID, s wbconstraints.Snak) (ItemValue, *ParameterError) {
	switch s.Type {
	case wbconstraints.SnakSomeValue, wbconstraints.SnakNoValue:
		return ItemValue{Type: s.Type}, nil
	}
	id, ok := s.EntityIDValue()
	if !ok || id.EntityType() != wbconstraints.EntityTypeItem {
		return ItemValue{}, paramError("wbqc-violation-message-parameter-item", con, pid)
	}
	return ItemValue{Type: wbconstraints.SnakValue, ID: id}, nil
}

// ParseItems reads item parameters. A required parameter must have at least one value.
func ParseItems(con Constraint, pid wbconstraints.PropertyID, required bool) ([]ItemValue, *ParameterError) {
	snaks := con.Parameter(pid)
	if len(snaks) == 0 {
		if required {
			return nil, paramError("wbqc-violation-message-parameter-needed", con, pid)
		}
		return nil, nil
	}
	out := make([]ItemValue, 0, len(snaks))
	for _, s := range snaks {
		v, perr := parseItem(con, pid, s)
		if perr != nil {
			return nil, perr
		}
		out = append(out, v)
	}
	return out, nil
}

func parseEntityIDs(con Constraint, pid wbconstraints.PropertyID, required bool, want wbconstraints.EntityType, key string) ([]wbconstraints.EntityID, *ParameterError) {
	snaks := con.Parameter(pid)
	if len(snaks) == 0 {
		if required {
			return nil, paramError("wbqc-violation-message-parameter-needed", con, pid)
		}
		return nil, nil
	}
	out := make([]wbconstraints.EntityID, 0, len(snaks))
	for _, s := range snaks {
		id, ok := s.EntityIDValue()
		if !ok || (want != wbconstraints.EntityTypeUnknown && id.EntityType() != want) {
			return nil, paramError(key, con, pid)
		}
		out = append(out, id)
	}
	return out, nil
}

func ParseClasses(con Constraint) ([]wbconstraints.EntityID, *ParameterError) {
	return parseEntityIDs(con, schemas.ClassParameter, true, wbconstraints.EntityTypeItem, "wbqc-violation-message-parameter-item")
}

func ParseRelation(con Constraint) (Relation, *ParameterError) {
	s, perr := requireSingle(con, schemas.RelationParameter)
	if perr != nil {
		return "", perr
	}
	id, _ := s.EntityIDValue()
	switch id {
	case schemas.InstanceOfRelation:
		return RelationInstance, nil
	case schemas.SubclassOfRelation:
		return RelationSubclass, nil
	case schemas.InstanceOrSubclassOfRelation:
		return RelationInstanceOrSubclass, nil
	}
	return "", NewParameterError(NewMessage("wbqc-violation-message-parameter-oneof").
		WithPropertyID(schemas.RelationParameter, RoleParameterProperty).
		WithEntityIDList([]wbconstraints.EntityID{
			schemas.InstanceOfRelation, schemas.SubclassOfRelation, schemas.InstanceOrSubclassOfRelation,
		}, RoleParameterValue))
}

func ParseProperty(con Constraint) (wbconstraints.PropertyID, *ParameterError) {
	s, perr := requireSingle(con, schemas.PropertyParameter)
	if perr != nil {
		return "", perr
	}
	id, ok := s.EntityIDValue()
	if !ok || id.EntityType() != wbconstraints.EntityTypeProperty {
		return "", paramError("wbqc-violation-message-parameter-property", con, schemas.PropertyParameter)
	}
	return wbconstraints.PropertyID(id), nil
}

// ParseProperties reads a list of property parameters. A single "no value"
// snak stands for the empty list.
func ParseProperties(con Constraint, pid wbconstraints.PropertyID) ([]wbconstraints.PropertyID, *ParameterError) {
	snaks := con.Parameter(pid)
	if len(snaks) == 1 && snaks[0].Type == wbconstraints.SnakNoValue {
		return []wbconstraints.PropertyID{}, nil
	}
	ids, perr := parseEntityIDs(con, pid, false, wbconstraints.EntityTypeProperty, "wbqc-violation-message-parameter-property")
	if perr != nil {
		return nil, perr
	}
	out := make([]wbconstraints.PropertyID, len(ids))
	for i, id := range ids {
		out[i] = wbconstraints.PropertyID(id)
	}
	return out, nil
}

// ParseSeparators reads the optional separator parameter.
func ParseSeparators(con Constraint) ([]wbconstraints.PropertyID, *ParameterError) {
	snaks := con.Parameter(schemas.SeparatorParameter)
	out := make([]wbconstraints.PropertyID, 0, len(snaks))
	for _, s := range snaks {
		id, ok := s.EntityIDValue()
		if !ok || id.EntityType() != wbconstraints.EntityTypeProperty {
			return nil, paramError("wbqc-violation-message-parameter-property", con, schemas.SeparatorParameter)
		}
		out = append(out, wbconstraints.PropertyID(id))
	}
	return out, nil
}

func ParseFormat(con Constraint) (string, *ParameterError) {
	s, perr := requireSingle(con, schemas.FormatParameter)
	if perr != nil {
		return "", perr
	}
	if s.Type != wbconstraints.SnakValue || s.Value == nil || s.Value.Type != wbconstraints.ValueTypeString {
		return "", paramError("wbqc-violation-message-parameter-string", con, schemas.FormatParameter)
	}
	return s.Value.String, nil
}

func parseBound(con Constraint, pid wbconstraints.PropertyID, want wbconstraints.ValueType) (*Bound, *ParameterError) {
	snaks := con.Parameter(pid)
	switch len(snaks) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, paramError("wbqc-violation-message-parameter-single", con, pid)
	}
	s := snaks[0]
	switch s.Type {
	case wbconstraints.SnakNoValue:
		return nil, nil
	case wbconstraints.SnakSomeValue:
		if want == wbconstraints.ValueTypeTime {
			return &Bound{Now: true}, nil
		}
		return nil, paramError("wbqc-violation-message-parameter-value", con, pid)
	}
	if s.Value == nil || s.Value.Type != want {
		return nil, paramError("wbqc-violation-message-parameter-value", con, pid)
	}
	if want == wbconstraints.ValueTypeQuantity && s.Value.Quantity == nil {
		return nil, paramError("wbqc-violation-message-parameter-value", con, pid)
	}
	if want == wbconstraints.ValueTypeTime && s.Value.Time == nil {
		return nil, paramError("wbqc-violation-message-parameter-value", con, pid)
	}
	return &Bound{Value: s.Value}, nil
}

// ParseRange reads the minimum and maximum bounds of a range constraint,
// either dates or quantities. At least one bound must be set, and both may
// not be "now".
func ParseRange(con Constraint, valueType wbconstraints.ValueType) (*Bound, *Bound, *ParameterError) {
	minPid, maxPid := schemas.MinimumQuantityParameter, schemas.MaximumQuantityParameter
	if valueType == wbconstraints.ValueTypeTime {
		minPid, maxPid = schemas.MinimumDateParameter, schemas.MaximumDateParameter
	}
	lo, perr := parseBound(con, minPid, valueType)
	if perr != nil {
		return nil, nil, perr
	}
	hi, perr := parseBound(con, maxPid, valueType)
	if perr != nil {
		return nil, nil, perr
	}
	if !lo.IsSet() && !hi.IsSet() {
		return nil, nil, NewParameterError(NewMessage("wbqc-violation-message-range-parameters-one").
			WithPropertyID(minPid, RoleParameterProperty).
			WithPropertyID(maxPid, RoleParameterProperty))
	}
	if lo.IsSet() && hi.IsSet() && lo.Now && hi.Now {
		return nil, nil, NewParameterError(NewMessage("wbqc-violation-message-range-parameters-same").
			WithPropertyID(minPid, RoleParameterProperty).
			WithPropertyID(maxPid, RoleParameterProperty))
	}
	return lo, hi, nil
}

// RangeValueType infers whether a range constraint is about dates or quantities.
func RangeValueType(con Constraint) wbconstraints.ValueType {
	if len(con.Parameter(schemas.MinimumDateParameter)) > 0 || len(con.Parameter(schemas.MaximumDateParameter)) > 0 {
		return wbconstraints.ValueTypeTime
	}
	return wbconstraints.ValueTypeQuantity
}

func contextTypeOfScopeItem(id wbconstraints.EntityID, mainValue, qualifier, reference wbconstraints.EntityID) (ContextType, bool) {
	switch id {
	case mainValue:
		return TypeStatement, true
	case qualifier:
		return TypeQualifier, true
	case reference:
		return TypeReference, true
	}
	return "", false
}

func parseScopeItems(con Constraint, property wbconstraints.PropertyID, mainValue, qualifier, reference wbconstraints.EntityID) ([]ContextType, *ParameterError) {
	snaks := con.Parameter(property)
	out := make([]ContextType, 0, len(snaks))
	for _, s := range snaks {
		id, _ := s.EntityIDValue()
		t, ok := contextTypeOfScopeItem(id, mainValue, qualifier, reference)
		if !ok {
			return nil, NewParameterError(NewMessage("wbqc-violation-message-parameter-oneof").
				WithPropertyID(property, RoleParameterProperty).
				WithEntityIDList([]wbconstraints.EntityID{mainValue, qualifier, reference}, RoleParameterValue))
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ParseConstraintScope reads the optional constraint scope. The second return
// is false when the constraint does not restrict its scope.
func ParseConstraintScope(con Constraint) ([]ContextType, bool, *ParameterError) {
	if len(con.Parameter(schemas.ConstraintScopeParameter)) == 0 {
		return nil, false, nil
	}
	scope, perr := parseScopeItems(con, schemas.ConstraintScopeParameter,
		schemas.ScopeMainValue, schemas.ScopeQualifier, schemas.ScopeReference)
	if perr != nil {
		return nil, false, perr
	}
	return scope, true, nil
}

func ParsePropertyScope(con Constraint) ([]ContextType, *ParameterError) {
	if len(con.Parameter(schemas.PropertyScopeParameter)) == 0 {
		return nil, paramError("wbqc-violation-message-parameter-needed", con, schemas.PropertyScopeParameter)
	}
	return parseScopeItems(con, schemas.PropertyScopeParameter,
		schemas.PropertyScopeMainValue, schemas.PropertyScopeQualifier, schemas.PropertyScopeReference)
}

func ParseExceptions(con Constraint) ([]wbconstraints.EntityID, *ParameterError) {
	return parseEntityIDs(con, schemas.ExceptionParameter, false, wbconstraints.EntityTypeUnknown, "wbqc-violation-message-parameter-entity")
}

func ParseConstraintStatus(con Constraint) (ConstraintStatus, *ParameterError) {
	snaks := con.Parameter(schemas.ConstraintStatusParameter)
	if len(snaks) == 0 {
		return SeverityNormal, nil
	}
	s, perr := requireSingle(con, schemas.ConstraintStatusParameter)
	if perr != nil {
		return SeverityNormal, perr
	}
	id, _ := s.EntityIDValue()
	switch id {
	case schemas.MandatoryStatus:
		return SeverityMandatory, nil
	case schemas.SuggestionStatus:
		return SeveritySuggestion, nil
	}
	return SeverityNormal, NewParameterError(NewMessage("wbqc-violation-message-parameter-oneof").
		WithPropertyID(schemas.ConstraintStatusParameter, RoleParameterProperty).
		WithEntityIDList([]wbconstraints.EntityID{schemas.MandatoryStatus, schemas.SuggestionStatus}, RoleParameterValue))
}

var entityTypesByItem = map[wbconstraints.EntityID]wbconstraints.EntityType{
	schemas.WikibaseItem:     wbconstraints.EntityTypeItem,
	schemas.WikibaseProperty: wbconstraints.EntityTypeProperty,
	schemas.WikibaseLexeme:   wbconstraints.EntityTypeLexeme,
	schemas.WikibaseForm:     wbconstraints.EntityTypeForm,
	schemas.WikibaseSense:    wbconstraints.EntityTypeSense,
	schemas.WikibaseMedia:    wbconstraints.EntityTypeMediaInfo,
}

func ParseEntityTypes(con Constraint) ([]wbconstraints.EntityType, *ParameterError) {
	items, perr := ParseItems(con, schemas.ItemParameter, true)
	if perr != nil {
		return nil, perr
	}
	out := make([]wbconstraints.EntityType, 0, len(items))
	for _, it := range items {
		t, ok := entityTypesByItem[it.ID]
		if it.Type != wbconstraints.SnakValue || !ok {
			return nil, paramError("wbqc-violation-message-parameter-entity-type", con, schemas.ItemParameter)
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseUnits reads allowed units. A "no value" snak allows unitless quantities.
func ParseUnits(con Constraint) (units []wbconstraints.EntityID, unitless bool, perr *ParameterError) {
	items, perr := ParseItems(con, schemas.ItemParameter, true)
	if perr != nil {
		return nil, false, perr
	}
	for _, it := range items {
		switch it.Type {
		case wbconstraints.SnakNoValue:
			unitless = true
		case wbconstraints.SnakValue:
			units = append(units, it.ID)
		default:
			return nil, false, paramError("wbqc-violation-message-parameter-item", con, schemas.ItemParameter)
		}
	}
	return units, unitless, nil
}

// UnitEntityID extracts the item id of a concept URI unit.
func UnitEntityID(unit string) (wbconstraints.EntityID, bool) {
	if unit == "" || unit == wbconstraints.UnitlessUnit {
		return "", false
	}
	return wbconstraints.EntityID(strings.TrimPrefix(unit, schemas.EntityURIPrefix)), true
}
