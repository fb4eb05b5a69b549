// Package schemas lists the well-known item and property ids that constraint
// definitions are expressed in.
package schemas

import "github.com/totegamma/wbconstraints"

// Constraint types.
const (
	OneOfConstraint                  wbconstraints.EntityID = "Q21510859"
	NoneOfConstraint                 wbconstraints.EntityID = "Q52558054"
	RangeConstraint                  wbconstraints.EntityID = "Q21510860"
	DifferenceWithinRangeConstraint  wbconstraints.EntityID = "Q21510854"
	FormatConstraint                 wbconstraints.EntityID = "Q21502404"
	SingleValueConstraint            wbconstraints.EntityID = "Q19474404"
	MultiValueConstraint             wbconstraints.EntityID = "Q21510857"
	SingleBestValueConstraint        wbconstraints.EntityID = "Q52060874"
	TypeConstraint                   wbconstraints.EntityID = "Q21503250"
	ValueTypeConstraint              wbconstraints.EntityID = "Q21510865"
	ItemRequiresStatementConstraint  wbconstraints.EntityID = "Q21503247"
	ValueRequiresStatementConstraint wbconstraints.EntityID = "Q21510864"
	SymmetricConstraint              wbconstraints.EntityID = "Q21510862"
	InverseConstraint                wbconstraints.EntityID = "Q21510855"
	ConflictsWithConstraint          wbconstraints.EntityID = "Q21502838"
	AllowedQualifiersConstraint      wbconstraints.EntityID = "Q21510851"
	MandatoryQualifierConstraint     wbconstraints.EntityID = "Q21510856"
	AllowedUnitsConstraint           wbconstraints.EntityID = "Q21514353"
	IntegerConstraint                wbconstraints.EntityID = "Q52848401"
	NoBoundsConstraint               wbconstraints.EntityID = "Q51723761"
	CitationNeededConstraint         wbconstraints.EntityID = "Q54554025"
	PropertyScopeConstraint          wbconstraints.EntityID = "Q53869507"
	AllowedEntityTypesConstraint     wbconstraints.EntityID = "Q52004125"
)

// Constraint parameters.
const (
	ItemParameter             wbconstraints.PropertyID = "P2305"
	PropertyParameter         wbconstraints.PropertyID = "P2306"
	ClassParameter            wbconstraints.PropertyID = "P2308"
	RelationParameter         wbconstraints.PropertyID = "P2309"
	MinimumDateParameter      wbconstraints.PropertyID = "P2310"
	MaximumDateParameter      wbconstraints.PropertyID = "P2311"
	MaximumQuantityParameter  wbconstraints.PropertyID = "P2312"
	MinimumQuantityParameter  wbconstraints.PropertyID = "P2313"
	FormatParameter           wbconstraints.PropertyID = "P1793"
	SeparatorParameter        wbconstraints.PropertyID = "P4155"
	PropertyScopeParameter    wbconstraints.PropertyID = "P5314"
	ExceptionParameter        wbconstraints.PropertyID = "P2303"
	ConstraintStatusParameter wbconstraints.PropertyID = "P2316"
	ConstraintScopeParameter  wbconstraints.PropertyID = "P4680"
	InstanceOfProperty        wbconstraints.PropertyID = "P31"
	SubclassOfProperty        wbconstraints.PropertyID = "P279"
)

// Relation parameter values.
const (
	InstanceOfRelation           wbconstraints.EntityID = "Q21503252"
	SubclassOfRelation           wbconstraints.EntityID = "Q21514624"
	InstanceOrSubclassOfRelation wbconstraints.EntityID = "Q30208840"
)

// Constraint status values.
const (
	MandatoryStatus  wbconstraints.EntityID = "Q21502408"
	SuggestionStatus wbconstraints.EntityID = "Q62026391"
)

// Constraint scope values (P4680).
const (
	ScopeMainValue wbconstraints.EntityID = "Q46466787"
	ScopeQualifier wbconstraints.EntityID = "Q46466783"
	ScopeReference wbconstraints.EntityID = "Q46466805"
)

// Property scope values (P5314).
const (
	PropertyScopeMainValue wbconstraints.EntityID = "Q54828448"
	PropertyScopeQualifier wbconstraints.EntityID = "Q54828449"
	PropertyScopeReference wbconstraints.EntityID = "Q54828450"
)

// Entity type values of the allowed-entity-types constraint.
const (
	WikibaseItem     wbconstraints.EntityID = "Q29934200"
	WikibaseProperty wbconstraints.EntityID = "Q29934218"
	WikibaseLexeme   wbconstraints.EntityID = "Q51885771"
	WikibaseForm     wbconstraints.EntityID = "Q54285143"
	WikibaseSense    wbconstraints.EntityID = "Q54285715"
	WikibaseMedia    wbconstraints.EntityID = "Q59712033"
)

// EntityURIPrefix prefixes entity ids in concept URIs such as quantity units.
const EntityURIPrefix = "http://www.wikidata.org/entity/"

func EntityTypeItemID(t wbconstraints.EntityType) (wbconstraints.EntityID, bool) {
	switch t {
	case wbconstraints.EntityTypeItem:
		return WikibaseItem, true
	case wbconstraints.EntityTypeProperty:
		return WikibaseProperty, true
	case wbconstraints.EntityTypeLexeme:
		return WikibaseLexeme, true
	case wbconstraints.EntityTypeForm:
		return WikibaseForm, true
	case wbconstraints.EntityTypeSense:
		return WikibaseSense, true
	case wbconstraints.EntityTypeMediaInfo:
		return WikibaseMedia, true
	}
	return "", false
}
