package checker

import (
	"context"
	"slices"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/schemas"
)

// QualifiersChecker only allows qualifiers on the listed properties.
type QualifiersChecker struct {
	base
}

func (c *QualifiersChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	allowed, perr := ParseProperties(con, schemas.PropertyParameter)
	if perr != nil {
		return CheckResult{}, perr
	}
	for _, q := range cx.Statement.Qualifiers {
		if slices.Contains(allowed, q.Property) {
			continue
		}
		key := "wbqc-violation-message-allowed-qualifiers"
		if len(allowed) == 0 {
			key = "wbqc-violation-message-no-qualifiers"
		}
		msg := NewMessage(key).
			WithPropertyID(con.PropertyID, RoleConstraintProperty).
			WithPropertyID(q.Property, RoleQualifierPredicate).
			WithPropertyIDList(allowed, RoleQualifierPredicate)
		return NewResult(cx, con, StatusViolation, msg), nil
	}
	return NewResult(cx, con, StatusCompliance, nil), nil
}

func (c *QualifiersChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseProperties(con, schemas.PropertyParameter)
	return collect(perr)
}

// QualifierChecker requires a qualifier on the given property.
type QualifierChecker struct {
	base
}

func (c *QualifierChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	pid, perr := ParseProperty(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if len(cx.Statement.QualifiersByProperty(pid)) > 0 {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := NewMessage("wbqc-violation-message-mandatory-qualifier").
		WithPropertyID(con.PropertyID, RoleConstraintProperty).
		WithPropertyID(pid, RoleQualifierPredicate)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *QualifierChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseProperty(con)
	return collect(perr)
}

// CitationNeededChecker requires at least one reference.
type CitationNeededChecker struct {
	base
}

func (c *CitationNeededChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	if len(cx.Statement.References) > 0 {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := NewMessage("wbqc-violation-message-citationNeeded").
		WithPropertyID(con.PropertyID, RoleConstraintProperty)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *CitationNeededChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	return nil
}

// PropertyScopeChecker restricts where a property may be used. It is also
// evaluated on deprecated statements.
type PropertyScopeChecker struct {
	base
}

func (c *PropertyScopeChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	scope, perr := ParsePropertyScope(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if slices.Contains(scope, cx.Type) {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := NewMessage("wbqc-violation-message-property-scope").
		WithPropertyID(con.PropertyID, RoleConstraintProperty).
		WithConstraintScope(cx.Type).
		WithContextTypes(scope)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *PropertyScopeChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParsePropertyScope(con)
	return collect(perr)
}

// EntityTypeChecker restricts the entity types a property may be used on.
// It is also evaluated on deprecated statements.
type EntityTypeChecker struct {
	base
}

func (c *EntityTypeChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	types, perr := ParseEntityTypes(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if slices.Contains(types, cx.Entity.Type()) {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	allowed := make([]wbconstraints.EntityID, 0, len(types))
	for _, t := range types {
		if id, ok := schemas.EntityTypeItemID(t); ok {
			allowed = append(allowed, id)
		}
	}
	msg := NewMessage("wbqc-violation-message-allowed-entity-types").
		WithPropertyID(con.PropertyID, RoleConstraintProperty).
		WithEntityIDList(allowed, RoleParameterValue)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *EntityTypeChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseEntityTypes(con)
	return collect(perr)
}
