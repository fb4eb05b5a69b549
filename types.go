package wbconstraints

import "encoding/json"

type EntityType string

const (
	EntityTypeItem      EntityType = "item"
	EntityTypeProperty  EntityType = "property"
	EntityTypeLexeme    EntityType = "lexeme"
	EntityTypeForm      EntityType = "form"
	EntityTypeSense     EntityType = "sense"
	EntityTypeMediaInfo EntityType = "mediainfo"
	EntityTypeUnknown   EntityType = ""
)

// EntityID is the serialization of an entity id, e.g. "Q42" or "L7-F1".
type EntityID string

func (id EntityID) String() string {
	return string(id)
}

func (id EntityID) EntityType() EntityType {
	return entityTypeOf(string(id))
}

type PropertyID string

func (id PropertyID) String() string {
	return string(id)
}

func (id PropertyID) EntityID() EntityID {
	return EntityID(id)
}

type Rank string

const (
	RankDeprecated Rank = "deprecated"
	RankNormal     Rank = "normal"
	RankPreferred  Rank = "preferred"
)

type SnakType string

const (
	SnakValue     SnakType = "value"
	SnakSomeValue SnakType = "somevalue"
	SnakNoValue   SnakType = "novalue"
)

type ValueType string

const (
	ValueTypeEntityID        ValueType = "wikibase-entityid"
	ValueTypeString          ValueType = "string"
	ValueTypeMonolingualText ValueType = "monolingualtext"
	ValueTypeTime            ValueType = "time"
	ValueTypeQuantity        ValueType = "quantity"
	ValueTypeGlobeCoordinate ValueType = "globecoordinate"
)

const UnitlessUnit = "1"

type QuantityValue struct {
	Amount float64  `json:"amount"`
	Upper  *float64 `json:"upperBound,omitempty"`
	Lower  *float64 `json:"lowerBound,omitempty"`
	Unit   string   `json:"unit"`
}

func (q QuantityValue) HasBounds() bool {
	return q.Upper != nil || q.Lower != nil
}

func (q QuantityValue) IsUnitless() bool {
	return q.Unit == "" || q.Unit == UnitlessUnit
}

type MonolingualText struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type GlobeCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Precision float64 `json:"precision,omitempty"`
	Globe     string  `json:"globe,omitempty"`
}

// DataValue is a tagged union; only the field matching Type is set.
type DataValue struct {
	Type        ValueType        `json:"type"`
	EntityID    EntityID         `json:"entityId,omitempty"`
	String      string           `json:"string,omitempty"`
	Monolingual *MonolingualText `json:"monolingual,omitempty"`
	Time        *TimeValue       `json:"time,omitempty"`
	Quantity    *QuantityValue   `json:"quantity,omitempty"`
	Coordinate  *GlobeCoordinate `json:"coordinate,omitempty"`
}

func NewEntityIDValue(id EntityID) *DataValue {
	return &DataValue{Type: ValueTypeEntityID, EntityID: id}
}

func NewStringValue(s string) *DataValue {
	return &DataValue{Type: ValueTypeString, String: s}
}

func NewTimeValue(t TimeValue) *DataValue {
	return &DataValue{Type: ValueTypeTime, Time: &t}
}

func NewQuantityValue(q QuantityValue) *DataValue {
	return &DataValue{Type: ValueTypeQuantity, Quantity: &q}
}

type Snak struct {
	Type     SnakType   `json:"snaktype"`
	Property PropertyID `json:"property"`
	Value    *DataValue `json:"datavalue,omitempty"`
}

func NewValueSnak(property PropertyID, value *DataValue) Snak {
	return Snak{Type: SnakValue, Property: property, Value: value}
}

func NewSomeValueSnak(property PropertyID) Snak {
	return Snak{Type: SnakSomeValue, Property: property}
}

func NewNoValueSnak(property PropertyID) Snak {
	return Snak{Type: SnakNoValue, Property: property}
}

// EntityIDValue returns the entity id held by a value snak, if any.
func (s Snak) EntityIDValue() (EntityID, bool) {
	if s.Type != SnakValue || s.Value == nil || s.Value.Type != ValueTypeEntityID {
		return "", false
	}
	return s.Value.EntityID, true
}

// Hash identifies a snak within a statement. Equal snaks hash equally.
func (s Snak) Hash() string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return HashBytes(b)
}

// Equals compares snaks by their serialized form.
func (s Snak) Equals(other Snak) bool {
	return s.Hash() == other.Hash()
}

type Reference struct {
	Hash  string `json:"hash,omitempty"`
	Snaks []Snak `json:"snaks"`
}

type Statement struct {
	GUID       string      `json:"id"`
	Rank       Rank        `json:"rank"`
	MainSnak   Snak        `json:"mainsnak"`
	Qualifiers []Snak      `json:"qualifiers,omitempty"`
	References []Reference `json:"references,omitempty"`
}

func (s Statement) PropertyID() PropertyID {
	return s.MainSnak.Property
}

func (s Statement) QualifiersByProperty(pid PropertyID) []Snak {
	var out []Snak
	for _, q := range s.Qualifiers {
		if q.Property == pid {
			out = append(out, q)
		}
	}
	return out
}

// Entity is the read-only view of an entity at one revision.
type Entity struct {
	ID         EntityID    `json:"id"`
	Revision   int64       `json:"lastrevid"`
	Statements []Statement `json:"claims"`
}

func (e *Entity) Type() EntityType {
	return e.ID.EntityType()
}

func (e *Entity) StatementsByProperty(pid PropertyID) []Statement {
	var out []Statement
	for _, s := range e.Statements {
		if s.PropertyID() == pid {
			out = append(out, s)
		}
	}
	return out
}

// BestStatementsByProperty returns the preferred statements of a property, or
// the normal ones if there are no preferred statements.
func (e *Entity) BestStatementsByProperty(pid PropertyID) []Statement {
	return BestStatements(e.StatementsByProperty(pid))
}

func (e *Entity) StatementByGUID(guid string) (Statement, bool) {
	for _, s := range e.Statements {
		if s.GUID == guid {
			return s, true
		}
	}
	return Statement{}, false
}

// PropertyIDs lists the properties used by main snaks, qualifiers and
// references, in order of first occurrence.
func (e *Entity) PropertyIDs() []PropertyID {
	seen := make(map[PropertyID]struct{})
	var out []PropertyID
	add := func(pid PropertyID) {
		if _, ok := seen[pid]; ok {
			return
		}
		seen[pid] = struct{}{}
		out = append(out, pid)
	}
	for _, s := range e.Statements {
		add(s.PropertyID())
		for _, q := range s.Qualifiers {
			add(q.Property)
		}
		for _, r := range s.References {
			for _, sn := range r.Snaks {
				add(sn.Property)
			}
		}
	}
	return out
}

func BestStatements(statements []Statement) []Statement {
	var preferred, normal []Statement
	for _, s := range statements {
		switch s.Rank {
		case RankPreferred:
			preferred = append(preferred, s)
		case RankNormal, "":
			normal = append(normal, s)
		}
	}
	if len(preferred) > 0 {
		return preferred
	}
	return normal
}
