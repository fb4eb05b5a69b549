package usecase

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/metrics"
	"github.com/totegamma/wbconstraints/metadata"
)

var tracer = otel.Tracer("usecase")

const (
	SparqlErrorMessageKey    = "wbqc-violation-message-sparql-error"
	CheckFailedMessageKey    = "wbqc-violation-message-check-failed"
	NotImplementedMessageKey = "wbqc-violation-message-not-yet-implemented"
	ExceptionMessageKey      = "wbqc-exception-message"
)

// DefaultResultsPerContext produces placeholder results appended after the
// results of every checked context.
type DefaultResultsPerContext func(cx checker.Context) []checker.CheckResult

// DefaultResultsPerEntity produces placeholder results appended after the
// results of a checked entity.
type DefaultResultsPerEntity func(id wbconstraints.EntityID) []checker.CheckResult

// Dispatcher checks every constraint applicable to an entity or statement.
type Dispatcher struct {
	lookup      checker.EntityLookup
	constraints ConstraintSource
	registry    *checker.Registry
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewDispatcher(
	lookup checker.EntityLookup,
	constraints ConstraintSource,
	registry *checker.Registry,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		lookup:      lookup,
		constraints: constraints,
		registry:    registry,
		logger:      logger,
		metrics:     m,
	}
}

// run holds the state of one CheckEntity or CheckStatement call.
type run struct {
	d          *Dispatcher
	filter     map[string]struct{}
	perContext DefaultResultsPerContext
	loaded     map[wbconstraints.PropertyID][]checker.Constraint
}

func (d *Dispatcher) newRun(constraintIDs []string, perContext DefaultResultsPerContext) (*run, error) {
	r := &run{
		d:          d,
		perContext: perContext,
		loaded:     make(map[wbconstraints.PropertyID][]checker.Constraint),
	}
	if constraintIDs != nil {
		if len(constraintIDs) == 0 {
			return nil, ErrEmptyConstraintFilter
		}
		r.filter = make(map[string]struct{}, len(constraintIDs))
		for _, id := range constraintIDs {
			r.filter[id] = struct{}{}
		}
	}
	return r, nil
}

// CheckEntity checks all constraints of all properties used on the entity.
// A missing entity yields only the perEntity placeholders.
func (d *Dispatcher) CheckEntity(
	ctx context.Context,
	id wbconstraints.EntityID,
	constraintIDs []string,
	perContext DefaultResultsPerContext,
	perEntity DefaultResultsPerEntity,
) ([]checker.CheckResult, error) {
	ctx, span := tracer.Start(ctx, "Dispatcher.CheckEntity")
	defer span.End()
	span.SetAttributes(attribute.String("entity", id.String()))

	start := time.Now()
	defer func() { d.metrics.ObserveCheckLatency(time.Since(start)) }()

	r, err := d.newRun(constraintIDs, perContext)
	if err != nil {
		return nil, err
	}

	entity, err := d.lookup.GetEntity(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var results []checker.CheckResult
	if entity != nil {
		for _, st := range entity.Statements {
			rs, err := r.checkStatement(ctx, entity, st)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			results = append(results, rs...)
		}
	}

	if perEntity != nil {
		results = append(results, perEntity(id)...)
	}
	return results, nil
}

// CheckStatement checks the statement with the given GUID. An unknown
// statement yields no results.
func (d *Dispatcher) CheckStatement(
	ctx context.Context,
	guid string,
	constraintIDs []string,
	perContext DefaultResultsPerContext,
) ([]checker.CheckResult, error) {
	ctx, span := tracer.Start(ctx, "Dispatcher.CheckStatement")
	defer span.End()
	span.SetAttributes(attribute.String("statement", guid))

	r, err := d.newRun(constraintIDs, perContext)
	if err != nil {
		return nil, err
	}

	id, err := wbconstraints.EntityIDFromGUID(guid)
	if err != nil {
		return nil, nil
	}

	entity, err := d.lookup.GetEntity(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if entity == nil {
		return nil, nil
	}

	st, ok := entity.StatementByGUID(guid)
	if !ok {
		return nil, nil
	}
	return r.checkStatement(ctx, entity, st)
}

func (r *run) constraintsFor(ctx context.Context, pid wbconstraints.PropertyID) ([]checker.Constraint, error) {
	if cons, ok := r.loaded[pid]; ok {
		return cons, nil
	}
	all, err := r.d.constraints.ConstraintsForProperty(ctx, pid)
	if err != nil {
		return nil, err
	}
	var cons []checker.Constraint
	for _, con := range all {
		if r.filter != nil {
			if _, ok := r.filter[con.ID]; !ok {
				continue
			}
		}
		cons = append(cons, con)
	}
	r.loaded[pid] = cons
	return cons, nil
}

func (r *run) checkStatement(ctx context.Context, entity *wbconstraints.Entity, st wbconstraints.Statement) ([]checker.CheckResult, error) {
	var results []checker.CheckResult

	rs, err := r.checkContext(ctx, checker.NewMainSnakContext(entity, st))
	if err != nil {
		return nil, err
	}
	results = append(results, rs...)

	for _, q := range st.Qualifiers {
		rs, err := r.checkContext(ctx, checker.NewQualifierContext(entity, st, q))
		if err != nil {
			return nil, err
		}
		results = append(results, rs...)
	}

	for _, ref := range st.References {
		for _, snak := range ref.Snaks {
			rs, err := r.checkContext(ctx, checker.NewReferenceContext(entity, st, ref, snak))
			if err != nil {
				return nil, err
			}
			results = append(results, rs...)
		}
	}

	return results, nil
}

func (r *run) checkContext(ctx context.Context, cx checker.Context) ([]checker.CheckResult, error) {
	cons, err := r.constraintsFor(ctx, cx.Snak.Property)
	if err != nil {
		return nil, err
	}

	results := make([]checker.CheckResult, 0, len(cons))
	for _, con := range cons {
		result, err := r.d.evaluate(ctx, cx, con)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if r.perContext != nil {
		results = append(results, r.perContext(cx)...)
	}
	return results, nil
}

// evaluate produces the result of one constraint at one context. Only
// cancellation of ctx is returned as an error.
func (d *Dispatcher) evaluate(ctx context.Context, cx checker.Context, con checker.Constraint) (checker.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return checker.CheckResult{}, err
	}

	result, err := d.evaluateConstraint(ctx, cx, con)
	if err != nil {
		return checker.CheckResult{}, err
	}

	d.metrics.IncCheckResult(con.TypeID.String(), string(result.Status))
	return result.WithMergedMetadata(metadata.OfEntity(cx.EntityID())), nil
}

func (d *Dispatcher) evaluateConstraint(ctx context.Context, cx checker.Context, con checker.Constraint) (checker.CheckResult, error) {
	exceptions, perr := checker.ParseExceptions(con)
	if perr != nil {
		return badParameters(cx, con, perr), nil
	}
	if slices.Contains(exceptions, cx.EntityID()) {
		return checker.NewResult(cx, con, checker.StatusException, checker.NewMessage(ExceptionMessageKey)), nil
	}

	c, ok := d.registry.Lookup(con.TypeID)
	if !ok {
		msg := checker.NewMessage(NotImplementedMessageKey).
			WithEntityID(con.TypeID, checker.RoleConstraintTypeItem)
		return checker.NewResult(cx, con, checker.StatusTodo, msg), nil
	}

	if result, done := d.handleScope(c, cx, con); done {
		return result, nil
	}

	result, err := c.Check(ctx, cx, con)
	if err != nil {
		return d.handleError(ctx, cx, con, err)
	}

	return d.handleConstraintStatus(cx, con, result), nil
}

// handleScope short-circuits contexts and entity types the constraint or its
// checker does not apply to.
func (d *Dispatcher) handleScope(c checker.Checker, cx checker.Context, con checker.Constraint) (checker.CheckResult, bool) {
	scope, explicit, perr := checker.ParseConstraintScope(con)
	if perr != nil {
		return badParameters(cx, con, perr), true
	}
	if !explicit {
		scope = c.DefaultContextTypes()
	}
	if !slices.Contains(scope, cx.Type) {
		return checker.NewResult(cx, con, checker.StatusNotInScope, nil), true
	}

	switch status := c.SupportedContextTypes()[cx.Type]; status {
	case checker.StatusNotInScope, checker.StatusTodo:
		return checker.NewResult(cx, con, status, nil), true
	case "":
		return checker.NewResult(cx, con, checker.StatusNotInScope, nil), true
	}

	if cx.Entity != nil {
		switch status := c.SupportedEntityTypes()[cx.Entity.Type()]; status {
		case checker.StatusNotInScope, checker.StatusTodo:
			return checker.NewResult(cx, con, status, nil), true
		case "":
			return checker.NewResult(cx, con, checker.StatusNotInScope, nil), true
		}
	}

	return checker.CheckResult{}, false
}

func (d *Dispatcher) handleError(ctx context.Context, cx checker.Context, con checker.Constraint, err error) (checker.CheckResult, error) {
	if perr, ok := checker.AsParameterError(err); ok {
		return badParameters(cx, con, perr), nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return checker.CheckResult{}, err
	}
	if checker.IsOracleError(err) {
		d.logger.Warn("type oracle failed",
			zap.String("entity", cx.EntityID().String()),
			zap.String("constraint", con.ID),
			zap.Error(err),
		)
		return checker.NewResult(cx, con, checker.StatusTodo, checker.NewMessage(SparqlErrorMessageKey)), nil
	}
	d.logger.Error("checker failed",
		zap.String("entity", cx.EntityID().String()),
		zap.String("constraint", con.ID),
		zap.Error(err),
	)
	return checker.NewResult(cx, con, checker.StatusTodo, checker.NewMessage(CheckFailedMessageKey)), nil
}

// handleConstraintStatus maps violations to the severity the constraint
// declares.
func (d *Dispatcher) handleConstraintStatus(cx checker.Context, con checker.Constraint, result checker.CheckResult) checker.CheckResult {
	if result.Status != checker.StatusViolation {
		return result
	}
	severity, perr := checker.ParseConstraintStatus(con)
	if perr != nil {
		return badParameters(cx, con, perr).WithMetadata(result.Metadata)
	}
	switch severity {
	case checker.SeverityMandatory:
	case checker.SeveritySuggestion:
		result.Status = checker.StatusSuggestion
	default:
		result.Status = checker.StatusWarning
	}
	return result
}

func badParameters(cx checker.Context, con checker.Constraint, perr *checker.ParameterError) checker.CheckResult {
	return checker.NewResult(cx, con, checker.StatusBadParameters, perr.Message)
}

// isCheckFailure reports whether r stands for a check that could not be
// completed, which makes the whole batch unfit for caching.
func isCheckFailure(r checker.CheckResult) bool {
	if r.Status != checker.StatusTodo || r.Message == nil {
		return false
	}
	return r.Message.Key == SparqlErrorMessageKey || r.Message.Key == CheckFailedMessageKey
}
