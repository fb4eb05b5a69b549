package checker

import (
	"context"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/metadata"
	"github.com/totegamma/wbconstraints/schemas"
)

func typeMessageKey(prefix string, r Relation) string {
	switch r {
	case RelationInstance:
		return prefix + "-instance"
	case RelationSubclass:
		return prefix + "-subclass"
	}
	return prefix + "-instanceOrSubclass"
}

// TypeChecker requires the subject to be an instance or subclass of one of
// the given classes.
type TypeChecker struct {
	base
	resolver *TypeResolver
}

func (c *TypeChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	classes, perr := ParseClasses(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	relation, perr := ParseRelation(con)
	if perr != nil {
		return CheckResult{}, perr
	}

	ok, meta, err := c.resolver.HasClassInRelation(ctx, cx.Entity.Statements, relation.Properties(), classes)
	if err != nil {
		return CheckResult{}, err
	}
	if ok {
		return NewResult(cx, con, StatusCompliance, nil).WithMetadata(meta), nil
	}
	msg := NewMessage(typeMessageKey("wbqc-violation-message-type", relation)).
		WithEntityID(cx.EntityID(), RoleSubject).
		WithPropertyID(con.PropertyID, RolePredicate).
		WithEntityIDList(classes, RoleObject)
	return NewResult(cx, con, StatusViolation, msg).WithMetadata(meta), nil
}

func (c *TypeChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseClasses(con)
	_, rerr := ParseRelation(con)
	return collect(perr, rerr)
}

// valueEntity loads the entity a value snak points to. The returned metadata
// depends on that entity whether or not it exists.
func valueEntity(ctx context.Context, lookup EntityLookup, snak wbconstraints.Snak) (wbconstraints.EntityID, *wbconstraints.Entity, metadata.Metadata, error) {
	id, ok := snak.EntityIDValue()
	if !ok {
		return "", nil, metadata.Metadata{}, nil
	}
	meta := metadata.OfEntity(id)
	entity, err := lookup.GetEntity(ctx, id)
	if err != nil {
		return id, nil, meta, err
	}
	return id, entity, meta, nil
}

func entityValueNeeded(con Constraint) *ParameterError {
	return NewParameterError(NewMessage("wbqc-violation-message-value-needed-of-type").
		WithEntityID(con.TypeID, RoleConstraintTypeItem).
		WithString(string(wbconstraints.ValueTypeEntityID)))
}

func isEntityValue(s wbconstraints.Snak) bool {
	_, ok := s.EntityIDValue()
	return ok
}

// ValueTypeChecker requires the value to be an instance or subclass of one
// of the given classes.
type ValueTypeChecker struct {
	base
	resolver *TypeResolver
	lookup   EntityLookup
}

func (c *ValueTypeChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	classes, perr := ParseClasses(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	relation, perr := ParseRelation(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if cx.Snak.Type != wbconstraints.SnakValue {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	if !isEntityValue(cx.Snak) {
		return CheckResult{}, entityValueNeeded(con)
	}

	id, entity, meta, err := valueEntity(ctx, c.lookup, cx.Snak)
	if err != nil {
		return CheckResult{}, err
	}
	if entity == nil {
		msg := NewMessage("wbqc-violation-message-value-entity-must-exist").
			WithPropertyID(con.PropertyID, RolePredicate).
			WithEntityID(id, RoleObject)
		return NewResult(cx, con, StatusViolation, msg).WithMetadata(meta), nil
	}

	ok, typeMeta, err := c.resolver.HasClassInRelation(ctx, entity.Statements, relation.Properties(), classes)
	if err != nil {
		return CheckResult{}, err
	}
	meta = metadata.Merge(meta, typeMeta)
	if ok {
		return NewResult(cx, con, StatusCompliance, nil).WithMetadata(meta), nil
	}
	msg := NewMessage(typeMessageKey("wbqc-violation-message-valueType", relation)).
		WithPropertyID(con.PropertyID, RolePredicate).
		WithEntityID(id, RoleObject).
		WithEntityIDList(classes, RoleConstraintProperty)
	return NewResult(cx, con, StatusViolation, msg).WithMetadata(meta), nil
}

func (c *ValueTypeChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseClasses(con)
	_, rerr := ParseRelation(con)
	return collect(perr, rerr)
}

// hasStatement reports whether statements contain one on pid whose value is
// one of items, or any value when items is empty.
func hasStatement(statements []wbconstraints.Statement, pid wbconstraints.PropertyID, items []ItemValue) bool {
	for _, s := range statements {
		if s.PropertyID() != pid {
			continue
		}
		if len(items) == 0 {
			return true
		}
		for _, it := range items {
			if it.Matches(s.MainSnak) {
				return true
			}
		}
	}
	return false
}

// ItemChecker requires the subject to also have a statement on a property,
// optionally with one of the given values.
type ItemChecker struct {
	base
}

func (c *ItemChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	pid, perr := ParseProperty(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	items, perr := ParseItems(con, schemas.ItemParameter, false)
	if perr != nil {
		return CheckResult{}, perr
	}
	if hasStatement(cx.Entity.Statements, pid, items) {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := NewMessage("wbqc-violation-message-item").
		WithPropertyID(con.PropertyID, RolePredicate).
		WithPropertyID(pid, RoleConstraintProperty)
	if len(items) > 0 {
		msg = msg.WithEntityIDList(itemList(items), RoleObject)
	}
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *ItemChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseProperty(con)
	_, ierr := ParseItems(con, schemas.ItemParameter, false)
	return collect(perr, ierr)
}

// TargetRequiredClaimChecker requires the value entity to have a statement on
// a property, optionally with one of the given values.
type TargetRequiredClaimChecker struct {
	base
	lookup EntityLookup
}

func (c *TargetRequiredClaimChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	pid, perr := ParseProperty(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	items, perr := ParseItems(con, schemas.ItemParameter, false)
	if perr != nil {
		return CheckResult{}, perr
	}
	if cx.Snak.Type != wbconstraints.SnakValue {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	if !isEntityValue(cx.Snak) {
		return CheckResult{}, entityValueNeeded(con)
	}

	id, entity, meta, err := valueEntity(ctx, c.lookup, cx.Snak)
	if err != nil {
		return CheckResult{}, err
	}
	if entity == nil {
		msg := NewMessage("wbqc-violation-message-target-entity-must-exist").
			WithPropertyID(con.PropertyID, RolePredicate).
			WithEntityID(id, RoleObject)
		return NewResult(cx, con, StatusViolation, msg).WithMetadata(meta), nil
	}
	if hasStatement(entity.Statements, pid, items) {
		return NewResult(cx, con, StatusCompliance, nil).WithMetadata(meta), nil
	}
	msg := NewMessage("wbqc-violation-message-target-required-claim").
		WithEntityID(id, RoleSubject).
		WithPropertyID(pid, RolePredicate)
	if len(items) > 0 {
		msg = msg.WithEntityIDList(itemList(items), RoleObject)
	}
	return NewResult(cx, con, StatusViolation, msg).WithMetadata(meta), nil
}

func (c *TargetRequiredClaimChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseProperty(con)
	_, ierr := ParseItems(con, schemas.ItemParameter, false)
	return collect(perr, ierr)
}

// pointsBack reports whether entity has a statement on pid whose value is target.
func pointsBack(entity *wbconstraints.Entity, pid wbconstraints.PropertyID, target wbconstraints.EntityID) bool {
	for _, s := range entity.StatementsByProperty(pid) {
		if id, ok := s.MainSnak.EntityIDValue(); ok && id == target {
			return true
		}
	}
	return false
}

// SymmetricChecker requires the value entity to link back to the subject
// through the same property.
type SymmetricChecker struct {
	base
	lookup EntityLookup
}

func (c *SymmetricChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	return checkLinkBack(ctx, c.lookup, cx, con, con.PropertyID, "wbqc-violation-message-symmetric")
}

func (c *SymmetricChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	return nil
}

// InverseChecker requires the value entity to link back to the subject
// through another property.
type InverseChecker struct {
	base
	lookup EntityLookup
}

func (c *InverseChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	pid, perr := ParseProperty(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	return checkLinkBack(ctx, c.lookup, cx, con, pid, "wbqc-violation-message-inverse")
}

func (c *InverseChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseProperty(con)
	return collect(perr)
}

func checkLinkBack(ctx context.Context, lookup EntityLookup, cx Context, con Constraint, pid wbconstraints.PropertyID, key string) (CheckResult, error) {
	if cx.Snak.Type != wbconstraints.SnakValue {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	if !isEntityValue(cx.Snak) {
		return CheckResult{}, entityValueNeeded(con)
	}
	id, entity, meta, err := valueEntity(ctx, lookup, cx.Snak)
	if err != nil {
		return CheckResult{}, err
	}
	if entity == nil {
		msg := NewMessage("wbqc-violation-message-target-entity-must-exist").
			WithPropertyID(con.PropertyID, RolePredicate).
			WithEntityID(id, RoleObject)
		return NewResult(cx, con, StatusViolation, msg).WithMetadata(meta), nil
	}
	if pointsBack(entity, pid, cx.EntityID()) {
		return NewResult(cx, con, StatusCompliance, nil).WithMetadata(meta), nil
	}
	msg := NewMessage(key).
		WithEntityID(id, RoleSubject).
		WithPropertyID(pid, RolePredicate).
		WithEntityID(cx.EntityID(), RoleObject)
	return NewResult(cx, con, StatusViolation, msg).WithMetadata(meta), nil
}

// ConflictsWithChecker forbids the subject from having a statement on
// another property, optionally only with one of the given values.
type ConflictsWithChecker struct {
	base
}

func (c *ConflictsWithChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	pid, perr := ParseProperty(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	items, perr := ParseItems(con, schemas.ItemParameter, false)
	if perr != nil {
		return CheckResult{}, perr
	}
	if !hasStatement(cx.Entity.Statements, pid, items) {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	key := "wbqc-violation-message-conflicts-with-property"
	if len(items) > 0 {
		key = "wbqc-violation-message-conflicts-with-claim"
	}
	msg := NewMessage(key).
		WithPropertyID(con.PropertyID, RoleConstraintProperty).
		WithPropertyID(pid, RolePredicate)
	if len(items) > 0 {
		msg = msg.WithEntityIDList(itemList(items), RoleObject)
	}
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *ConflictsWithChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseProperty(con)
	_, ierr := ParseItems(con, schemas.ItemParameter, false)
	return collect(perr, ierr)
}
