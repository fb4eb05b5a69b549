package checker

import (
	"context"
	"slices"
	"strings"

	"github.com/totegamma/wbconstraints"
)

// separatorKey identifies the values a statement has for the separator
// qualifiers. Statements with different keys do not count against each other.
func separatorKey(s wbconstraints.Statement, separators []wbconstraints.PropertyID) string {
	if len(separators) == 0 {
		return ""
	}
	var parts []string
	for _, pid := range separators {
		hashes := []string{}
		for _, q := range s.QualifiersByProperty(pid) {
			hashes = append(hashes, q.Hash())
		}
		slices.Sort(hashes)
		parts = append(parts, pid.String()+"="+strings.Join(hashes, ","))
	}
	return strings.Join(parts, ";")
}

// countMatching counts the statements of the constrained property whose rank
// passes keep and whose separator key equals the checked statement's.
func countMatching(cx Context, con Constraint, separators []wbconstraints.PropertyID, keep func(wbconstraints.Rank) bool) int {
	key := separatorKey(cx.Statement, separators)
	n := 0
	for _, s := range cx.Entity.StatementsByProperty(con.PropertyID) {
		if keep(s.Rank) && separatorKey(s, separators) == key {
			n++
		}
	}
	return n
}

func notDeprecated(r wbconstraints.Rank) bool {
	return r != wbconstraints.RankDeprecated
}

func withSeparators(msg *ViolationMessage, separators []wbconstraints.PropertyID) *ViolationMessage {
	if len(separators) == 0 {
		return msg
	}
	msg.Key += "-separators"
	return msg.WithPropertyIDList(separators, RoleQualifierPredicate)
}

// SingleValueChecker allows at most one statement per property.
type SingleValueChecker struct {
	base
}

func (c *SingleValueChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	separators, perr := ParseSeparators(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if countMatching(cx, con, separators, notDeprecated) <= 1 {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := withSeparators(NewMessage("wbqc-violation-message-single-value"), separators)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *SingleValueChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseSeparators(con)
	return collect(perr)
}

// MultiValueChecker requires at least two statements per property.
type MultiValueChecker struct {
	base
}

func (c *MultiValueChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	separators, perr := ParseSeparators(con)
	if perr != nil {
		return CheckResult{}, perr
	}
	if countMatching(cx, con, separators, notDeprecated) >= 2 {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := withSeparators(NewMessage("wbqc-violation-message-multi-value"), separators)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *MultiValueChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseSeparators(con)
	return collect(perr)
}

// SingleBestValueChecker allows at most one statement of the best rank.
type SingleBestValueChecker struct {
	base
}

func (c *SingleBestValueChecker) Check(ctx context.Context, cx Context, con Constraint) (CheckResult, error) {
	if isDeprecated(cx) {
		return deprecatedResult(cx, con), nil
	}
	separators, perr := ParseSeparators(con)
	if perr != nil {
		return CheckResult{}, perr
	}

	preferred := countMatching(cx, con, separators, func(r wbconstraints.Rank) bool {
		return r == wbconstraints.RankPreferred
	})
	switch {
	case preferred == 1:
		return NewResult(cx, con, StatusCompliance, nil), nil
	case preferred > 1:
		msg := withSeparators(NewMessage("wbqc-violation-message-single-best-value-multi-preferred"), separators)
		return NewResult(cx, con, StatusViolation, msg), nil
	}

	normal := countMatching(cx, con, separators, notDeprecated)
	if normal <= 1 {
		return NewResult(cx, con, StatusCompliance, nil), nil
	}
	msg := withSeparators(NewMessage("wbqc-violation-message-single-best-value-no-preferred"), separators)
	return NewResult(cx, con, StatusViolation, msg), nil
}

func (c *SingleBestValueChecker) CheckConstraintParameters(con Constraint) []*ParameterError {
	_, perr := ParseSeparators(con)
	return collect(perr)
}
