package usecase

import (
	"context"
	"strings"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/domain"
)

// ParameterUsecase validates constraint parameters without checking any
// entity.
type ParameterUsecase struct {
	constraints ConstraintSource
	registry    *checker.Registry
}

func NewParameterUsecase(constraints ConstraintSource, registry *checker.Registry) *ParameterUsecase {
	return &ParameterUsecase{constraints: constraints, registry: registry}
}

// Validate returns the parameter problems of con, including the parameters
// common to all constraint types. Constraint types without a checker have no
// problems.
func (uc *ParameterUsecase) Validate(con checker.Constraint) []*checker.ParameterError {
	var perrs []*checker.ParameterError

	if _, perr := checker.ParseExceptions(con); perr != nil {
		perrs = append(perrs, perr)
	}
	if _, perr := checker.ParseConstraintStatus(con); perr != nil {
		perrs = append(perrs, perr)
	}
	if _, _, perr := checker.ParseConstraintScope(con); perr != nil {
		perrs = append(perrs, perr)
	}

	c, ok := uc.registry.Lookup(con.TypeID)
	if !ok {
		return perrs
	}
	return append(perrs, c.CheckConstraintParameters(con)...)
}

// CheckOnProperty validates every constraint of pid, keyed by constraint id.
func (uc *ParameterUsecase) CheckOnProperty(ctx context.Context, pid wbconstraints.PropertyID) (map[string][]*checker.ParameterError, error) {
	cons, err := uc.constraints.ConstraintsForProperty(ctx, pid)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*checker.ParameterError, len(cons))
	for _, con := range cons {
		out[con.ID] = uc.Validate(con)
	}
	return out, nil
}

// CheckOnConstraintID validates one constraint. Constraint ids have the form
// "<property id>$<suffix>".
func (uc *ParameterUsecase) CheckOnConstraintID(ctx context.Context, constraintID string) ([]*checker.ParameterError, error) {
	prefix, _, found := strings.Cut(constraintID, "$")
	if !found {
		return nil, domain.ConstraintNotFound(constraintID)
	}
	pid, err := wbconstraints.ParsePropertyID(prefix)
	if err != nil {
		return nil, domain.ConstraintNotFound(constraintID)
	}

	cons, err := uc.constraints.ConstraintsForProperty(ctx, pid)
	if err != nil {
		return nil, err
	}
	for _, con := range cons {
		if con.ID == constraintID {
			return uc.Validate(con), nil
		}
	}
	return nil, domain.ConstraintNotFound(constraintID)
}
