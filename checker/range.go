package checker

import (
	"context"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/metadata"
)

// RangeChecker requires dates or quantities to lie within bounds. A date
// bound of "some value" means the current time.
type RangeChecker struct {
	base
	clock wbconstraints.Clock
}

func (c *RangeChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	valueType := RangeValueType(con)
	lo, hi, perr := ParseRange(con, valueType)
	if perr != nil {
		return CheckResult{}, perr
	}
	v := cx.Snak.Value
	if cx.Snak.Type != wbconstraints.SnakValue || v == nil {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}

	switch {
	case valueType == wbconstraints.ValueTypeTime && v.Time != nil:
		return c.checkTime(cx, con, *v.Time, lo, hi), nil
	case valueType == wbconstraints.ValueTypeQuantity && v.Quantity != nil:
		return c.checkQuantity(cx, con, v.Quantity.Amount, lo, hi), nil
	case v.Time == nil && v.Quantity == nil:
		return CheckResult{}, NewParameterError(NewMessage("wbqc-violation-message-value-needed-of-types").
			WithEntityID(con.TypeID, RoleConstraintTypeItem).
			WithString(string(wbconstraints.ValueTypeQuantity)).
			WithString(string(wbconstraints.ValueTypeTime)))
	}
	// the bounds are of the other type
	return CheckResult{}, NewParameterError(NewMessage("wbqc-violation-message-value-needed-of-type").
		WithEntityID(con.TypeID, RoleConstraintTypeItem).
		WithString(string(valueType)))
}

func (c *RangeChecker) checkTime(cx Context, con Constraint, value wbconstraints.TimeValue, lo, hi *Bound) CheckResult {
	now := wbconstraints.TimeValueFromTime(c.clock.Now())
	resolve := func(b *Bound) (wbconstraints.TimeValue, bool) {
		if !b.IsSet() {
			return wbconstraints.TimeValue{}, false
		}
		if b.Now {
			return now, true
		}
		return *b.Value.Time, true
	}
	lower, hasMin := resolve(lo)
	upper, hasMax := resolve(hi)

	var meta metadata.Metadata
	// A comparison against "now" flips once now passes the value.
	if ((lo.IsSet() && lo.Now) || (hi.IsSet() && hi.Now)) && value.After(now) {
		meta = metadata.OfDependency(metadata.OfFutureTime(value))
	}

	if (hasMin && value.Before(lower)) || (hasMax && value.After(upper)) {
		msg := rangeMessage("time", hasMin, hasMax).
			WithPropertyID(con.PropertyID, RolePredicate).
			WithDataValue(cx.Snak.Value, RoleObject)
		if hasMin {
			msg = msg.WithString(boundString(lo, lower.Time))
		}
		if hasMax {
			msg = msg.WithString(boundString(hi, upper.Time))
		}
		return NewResult(cx, con, StatusViolation, msg).WithMetadata(meta)
	}
	return NewResult(cx, con, StatusCompliance, nil).WithMetadata(meta)
}

func boundString(b *Bound, rendered string) string {
	if b.Now {
		return "now"
	}
	return rendered
}

func (c *RangeChecker) checkQuantity(cx Context, con Constraint, amount float64, lo, hi *Bound) CheckResult {
	hasMin, hasMax := lo.IsSet(), hi.IsSet()
	if (hasMin && amount < lo.Value.Quantity.Amount) || (hasMax && amount > hi.Value.Quantity.Amount) {
		msg := rangeMessage("quantity", hasMin, hasMax).
			WithPropertyID(con.PropertyID, RolePredicate).
			WithDataValue(cx.Snak.Value, RoleObject)
		if hasMin {
			msg = msg.WithDataValue(lo.Value, RoleParameterValue)
		}
		if hasMax {
			msg = msg.WithDataValue(hi.Value, RoleParameterValue)
		}
		return NewResult(cx, con, StatusViolation, msg)
	}
	return NewResult(cx, con, StatusCompliance, nil)
}

func rangeMessage(kind string, hasMin, hasMax bool) *ViolationMessage {
	suffix := "closed"
	switch {
	case !hasMin:
		suffix = "leftopen"
	case !hasMax:
		suffix = "rightopen"
	}
	return NewMessage("wbqc-violation-message-range-" + kind + "-" + suffix)
}

func (c *RangeChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, _, perr := ParseRange(con, RangeValueType(con))
	return collect(perr)
}

// DiffWithinRangeChecker requires the difference between this statement's
// value and the value of another property on the same entity to lie within
// quantity bounds. Date differences are measured in years.
type DiffWithinRangeChecker struct {
	base
}

func (c *DiffWithinRangeChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	other, perr := ParseProperty(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	lo, hi, perr := ParseRange(con, wbconstraints.ValueTypeQuantity)
	if perr != nil {
		return CheckResult{}, perr
	}
	v := cx.Snak.Value
	if cx.Snak.Type != wbconstraints.SnakValue || v == nil {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}

	for _, s := range cx.Entity.BestStatementsByProperty(other) {
		ov := s.MainSnak.Value
		if s.MainSnak.Type != wbconstraints.SnakValue || ov == nil || ov.Type != v.Type {
			continue
		}
		var diff float64
		switch {
		case v.Time != nil && ov.Time != nil:
			years, err := ov.Time.YearsBetween(*v.Time)
			if err != nil {
				continue
			}
			diff = years
		case v.Quantity != nil && ov.Quantity != nil:
			diff = v.Quantity.Amount - ov.Quantity.Amount
		default:
			continue
		}
		if (lo.IsSet() && diff < lo.Value.Quantity.Amount) || (hi.IsSet() && diff > hi.Value.Quantity.Amount) {
			msg := rangeMessage("diff-within-range", lo.IsSet(), hi.IsSet()).
				WithPropertyID(con.PropertyID, RolePredicate).
				WithDataValue(v, RoleObject).
				WithPropertyID(other, RoleConstraintProperty).
				WithDataValue(ov, RoleObject)
			return NewResult(cx, con, StatusViolation, msg), nil
		}
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	return NewResult(cx, con, StatusCompliance, nil), nil
}

func (c *DiffWithinRangeChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseProperty(con)
	_, _, rerr := ParseRange(con, wbconstraints.ValueTypeQuantity)
	return collect(perr, rerr)
}
