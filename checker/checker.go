// Package checker evaluates constraints against statements. Each constraint
// type has one stateless Checker; a Registry maps type ids to checkers.
package checker

import (
	"context"
	"strconv"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/schemas"
)

// Checker evaluates one constraint type. Implementations must be safe for
// concurrent use.
type Checker interface {
	// SupportedContextTypes reports, per context type, whether the checker is
	// implemented there (compliance), not yet implemented (todo) or out of
	// scope (not-in-scope).
	SupportedContextTypes() map[ContextType]Status
	// DefaultContextTypes are checked when the constraint has no explicit scope.
	DefaultContextTypes() []ContextType
	SupportedEntityTypes() map[wbconstraints.EntityType]Status
	// Check evaluates con at cx. Malformed parameters are reported as a
	// *ParameterError; oracle failures as an *OracleError.
	Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error)
	// CheckConstraintParameters validates parameters without checking any entity.
	CheckConstraintParameters(con Constraint) []*ParameterError
}

var allEntityTypes = []wbconstraints.EntityType{
	wbconstraints.EntityTypeItem,
	wbconstraints.EntityTypeProperty,
	wbconstraints.EntityTypeLexeme,
	wbconstraints.EntityTypeForm,
	wbconstraints.EntityTypeSense,
	wbconstraints.EntityTypeMediaInfo,
}

func allContexts(status Status) map[ContextType]Status {
	return map[ContextType]Status{
		TypeStatement: status,
		TypeQualifier: status,
		TypeReference: status,
	}
}

func statementOnly() map[ContextType]Status {
	return map[ContextType]Status{
		TypeStatement: StatusCompliance,
		TypeQualifier: StatusNotInScope,
		TypeReference: StatusNotInScope,
	}
}

func everyEntityType() map[wbconstraints.EntityType]Status {
	out := make(map[wbconstraints.EntityType]Status, len(allEntityTypes))
	for _, t := range allEntityTypes {
		out[t] = StatusCompliance
	}
	return out
}

// base carries the declarative part shared by most checkers.
type base struct {
	contexts    map[ContextType]Status
	defaults    []ContextType
	entityTypes map[wbconstraints.EntityType]Status
}

func allContextsBase() base {
	return base{contexts: allContexts(StatusCompliance), defaults: AllContextTypes, entityTypes: everyEntityType()}
}

func statementBase() base {
	return base{contexts: statementOnly(), defaults: []ContextType{TypeStatement}, entityTypes: everyEntityType()}
}

func (b base) SupportedContextTypes() map[ContextType]Status {
	return b.contexts
}

func (b base) DefaultContextTypes() []ContextType {
	return b.defaults
}

func (b base) SupportedEntityTypes() map[wbconstraints.EntityType]Status {
	return b.entityTypes
}

// isDeprecated reports whether cx is the main snak of a deprecated statement.
func isDeprecated(cx Context) bool {
	return cx.Type == TypeStatement && cx.Statement.Rank == wbconstraints.RankDeprecated
}

func deprecatedResult(cx Context, con Constraint) CheckResult {
	return NewResult(cx, con, StatusDeprecated, nil)
}

func collect(perrs ...*ParameterError) []*ParameterError {
	var out []*ParameterError
	for _, p := range perrs {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Registry maps constraint type ids to checkers.
type Registry struct {
	checkers map[wbconstraints.EntityID]Checker
}

func NewRegistry() *Registry {
	return &Registry{checkers: make(map[wbconstraints.EntityID]Checker)}
}

func (r *Registry) Register(typeID wbconstraints.EntityID, c Checker) {
	r.checkers[typeID] = c
}

// Lookup returns the checker for typeID. The second return is false for
// constraint types that have no implementation.
func (r *Registry) Lookup(typeID wbconstraints.EntityID) (Checker, bool) {
	c, ok := r.checkers[typeID]
	return c, ok
}

func (r *Registry) TypeIDs() []wbconstraints.EntityID {
	out := make([]wbconstraints.EntityID, 0, len(r.checkers))
	for id := range r.checkers {
		out = append(out, id)
	}
	return out
}

// Dependencies are the shared, read-only collaborators of the checkers.
type Dependencies struct {
	Lookup   EntityLookup
	Resolver *TypeResolver
	Oracle   TypeOracle
	Clock    wbconstraints.Clock
}

// NewDefaultRegistry registers every built-in checker.
func NewDefaultRegistry(deps Dependencies) *Registry {
	if deps.Clock == nil {
		deps.Clock = wbconstraints.SystemClock{}
	}
	if deps.Resolver == nil {
		deps.Resolver = NewTypeResolver(deps.Lookup, WithOracle(deps.Oracle))
	}

	r := NewRegistry()
	r.Register(schemas.OneOfConstraint, &OneOfChecker{base: allContextsBase()})
	r.Register(schemas.NoneOfConstraint, &NoneOfChecker{base: allContextsBase()})
	r.Register(schemas.RangeConstraint, &RangeChecker{base: allContextsBase(), clock: deps.Clock})
	r.Register(schemas.DifferenceWithinRangeConstraint, &DiffWithinRangeChecker{base: statementBase()})
	r.Register(schemas.FormatConstraint, &FormatChecker{base: allContextsBase(), oracle: deps.Oracle})
	r.Register(schemas.SingleValueConstraint, &SingleValueChecker{base: statementBase()})
	r.Register(schemas.MultiValueConstraint, &MultiValueChecker{base: statementBase()})
	r.Register(schemas.SingleBestValueConstraint, &SingleBestValueChecker{base: statementBase()})
	r.Register(schemas.TypeConstraint, &TypeChecker{base: statementBase(), resolver: deps.Resolver})
	r.Register(schemas.ValueTypeConstraint, &ValueTypeChecker{base: allContextsBase(), resolver: deps.Resolver, lookup: deps.Lookup})
	r.Register(schemas.ItemRequiresStatementConstraint, &ItemChecker{base: statementBase()})
	r.Register(schemas.ValueRequiresStatementConstraint, &TargetRequiredClaimChecker{base: allContextsBase(), lookup: deps.Lookup})
	r.Register(schemas.SymmetricConstraint, &SymmetricChecker{base: statementBase(), lookup: deps.Lookup})
	r.Register(schemas.InverseConstraint, &InverseChecker{base: statementBase(), lookup: deps.Lookup})
	r.Register(schemas.ConflictsWithConstraint, &ConflictsWithChecker{base: statementBase()})
	r.Register(schemas.AllowedQualifiersConstraint, &QualifiersChecker{base: statementBase()})
	r.Register(schemas.MandatoryQualifierConstraint, &QualifierChecker{base: statementBase()})
	r.Register(schemas.AllowedUnitsConstraint, &UnitsChecker{base: allContextsBase()})
	r.Register(schemas.IntegerConstraint, &IntegerChecker{base: allContextsBase()})
	r.Register(schemas.NoBoundsConstraint, &NoBoundsChecker{base: allContextsBase()})
	r.Register(schemas.CitationNeededConstraint, &CitationNeededChecker{base: statementBase()})
	r.Register(schemas.PropertyScopeConstraint, &PropertyScopeChecker{base: allContextsBase()})
	r.Register(schemas.AllowedEntityTypesConstraint, &EntityTypeChecker{base: allContextsBase()})
	return r
}
