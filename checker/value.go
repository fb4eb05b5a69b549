package checker

import (
	"context"
	"errors"
	"math"
	"regexp"
	"slices"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/schemas"
)

func itemList(items []ItemValue) []wbconstraints.EntityID {
	out := make([]wbconstraints.EntityID, len(items))
	for i, it := range items {
		out[i] = wbconstraints.EntityID(it.String())
	}
	return out
}

// OneOfChecker requires the value to be one of the listed items.
type OneOfChecker struct {
	base
}

func (c *OneOfChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	items, perr := ParseItems(con, schemas.ItemParameter, true)
	if perr != nil {
		return CheckResult{}, perr
	}
	for _, it := range items {
		if it.Matches(cx.Snak) {
			return NewResult(cx, con, StatusCompliance, nil), nil
		}
	}
	msg := NewMessage("wbqc-violation-message-one-of").
		WithPropertyID(con.PropertyID, RolePredicate).
		WithEntityIDList(itemList(items), RoleObject)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *OneOfChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseItems(con, schemas.ItemParameter, true)
	return collect(perr)
}

// NoneOfChecker forbids the listed items as values.
type NoneOfChecker struct {
	base
}

func (c *NoneOfChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	items, perr := ParseItems(con, schemas.ItemParameter, true)
	if perr != nil {
		return CheckResult{}, perr
	}
	for _, it := range items {
		if it.Matches(cx.Snak) {
			msg := NewMessage("wbqc-violation-message-none-of").
				WithPropertyID(con.PropertyID, RolePredicate).
				WithEntityIDList(itemList(items), RoleObject)
			return NewResult(cx, con, StatusViolation, msg), nil
		}
	}
	return NewResult(cx, con, StatusCompliance, nil), nil
}

func (c *NoneOfChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseItems(con, schemas.ItemParameter, true)
	return collect(perr)
}

// FormatChecker matches string values against a regular expression. The
// oracle evaluates the pattern when configured; otherwise it is compiled
// locally.
type FormatChecker struct {
	base
	oracle TypeOracle
}

func (c *FormatChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	pattern, perr := ParseFormat(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if cx.Snak.Type != wbconstraints.SnakValue || cx.Snak.Value == nil {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}

	var text string
	switch v := cx.Snak.Value; v.Type {
	case wbconstraints.ValueTypeString:
		text = v.String
	case wbconstraints.ValueTypeMonolingualText:
		if v.Monolingual != nil {
			text = v.Monolingual.Text
		}
	default:
		return CheckResult{}, NewParameterError(NewMessage("wbqc-violation-message-value-needed-of-types").
			WithEntityID(con.TypeID, RoleConstraintTypeItem).
			WithString(string(wbconstraints.ValueTypeString)).
			WithString(string(wbconstraints.ValueTypeMonolingualText)))
	}

	ok, err := c.matches(ctx, text, pattern)
	if err != nil {
		if errors.Is(err, ErrBadPattern) {
			return CheckResult{}, NewParameterError(NewMessage("wbqc-violation-message-parameter-regex").
				WithString(pattern))
		}
		return CheckResult{}, err
	}
	if ok {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := NewMessage("wbqc-violation-message-format-clarification").
		WithPropertyID(con.PropertyID, RolePredicate).
		WithDataValue(cx.Snak.Value, RoleObject).
		WithString(pattern)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *FormatChecker) matches(ctx context.Context, text, pattern string) (bool, error) {
	if c.oracle != nil {
		return c.oracle.MatchesPattern(ctx, text, pattern)
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false, ErrBadPattern
	}
	return re.MatchString(text), nil
}

func (c *FormatChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseFormat(con)
	return collect(perr)
}

func quantityOf(cx Context, con Constraint) (*wbconstraints.QuantityValue, *ParameterError) {
	if cx.Snak.Type != wbconstraints.SnakValue || cx.Snak.Value == nil {
		return nil, nil
	}
	if cx.Snak.Value.Type != wbconstraints.ValueTypeQuantity || cx.Snak.Value.Quantity == nil {
		return nil, NewParameterError(NewMessage("wbqc-violation-message-value-needed-of-type").
			WithEntityID(con.TypeID, RoleConstraintTypeItem).
			WithString(string(wbconstraints.ValueTypeQuantity)))
	}
	return cx.Snak.Value.Quantity, nil
}

func isInteger(f float64) bool {
	return f == math.Trunc(f)
}

// IntegerChecker requires quantities, and their bounds, to be integers.
type IntegerChecker struct {
	base
}

func (c *IntegerChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	q, perr := quantityOf(cx, con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if q == nil {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	if !isInteger(q.Amount) {
		msg := NewMessage("wbqc-violation-message-integer").
			WithPropertyID(con.PropertyID, RolePredicate).
			WithDataValue(cx.Snak.Value, RoleObject)
		return NewResult(cx, con, StatusViolation, msg), nil
	}
	if (q.Upper != nil && !isInteger(*q.Upper)) || (q.Lower != nil && !isInteger(*q.Lower)) {
		msg := NewMessage("wbqc-violation-message-integer-bounds").
			WithPropertyID(con.PropertyID, RolePredicate).
			WithDataValue(cx.Snak.Value, RoleObject)
		return NewResult(cx, con, StatusViolation, msg), nil
	}
	return NewResult(cx, con, StatusCompliance, nil), nil
}

func (c *IntegerChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	return nil
}

// NoBoundsChecker forbids upper and lower bounds on quantities.
type NoBoundsChecker struct {
	base
}

func (c *NoBoundsChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	q, perr := quantityOf(cx, con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if q == nil || !q.HasBounds() {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := NewMessage("wbqc-violation-message-noBounds").
		WithPropertyID(con.PropertyID, RolePredicate)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *NoBoundsChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	return nil
}

// UnitsChecker restricts the units of quantities.
type UnitsChecker struct {
	base
}

func (c *UnitsChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	units, unitless, perr := ParseUnits(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	q, perr := quantityOf(cx, con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if q == nil {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}

	unit, hasUnit := UnitEntityID(q.Unit)
	switch {
	case !hasUnit && unitless:
		return NewResult(cx, con, StatusCompliance, nil), nil
	case hasUnit && slices.Contains(units, unit):
		return NewResult(cx, con, StatusCompliance, nil), nil
	}

	key := "wbqc-violation-message-units"
	switch {
	case len(units) == 0:
		key = "wbqc-violation-message-units-none"
	case unitless:
		key = "wbqc-violation-message-units-or-none"
	}
	msg := NewMessage(key).
		WithPropertyID(con.PropertyID, RolePredicate).
		WithEntityIDList(units, RoleConstraintProperty)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *UnitsChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, _, perr := ParseUnits(con)
	return collect(perr)
}
