package checker

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/metadata"
	"github.com/totegamma/wbconstraints/schemas"
)

var tracer = otel.Tracer("checker")

const DefaultTypeCheckMaxEntities = 1000

// TypeResolver answers "is X an instance or subclass of one of these classes"
// by walking local "subclass of" statements, within a budget of visited
// entities per query.
type TypeResolver struct {
	lookup      EntityLookup
	oracle      TypeOracle
	maxEntities int
	logger      *zap.Logger
	onFallback  func()
}

type TypeResolverOption func(*TypeResolver)

func WithOracle(o TypeOracle) TypeResolverOption {
	return func(r *TypeResolver) {
		r.oracle = o
	}
}

func WithMaxEntities(n int) TypeResolverOption {
	return func(r *TypeResolver) {
		if n > 0 {
			r.maxEntities = n
		}
	}
}

func WithResolverLogger(l *zap.Logger) TypeResolverOption {
	return func(r *TypeResolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithFallbackHook registers a function called whenever a walk overflows
// and the oracle is consulted.
func WithFallbackHook(fn func()) TypeResolverOption {
	return func(r *TypeResolver) {
		r.onFallback = fn
	}
}

func NewTypeResolver(lookup EntityLookup, opts ...TypeResolverOption) *TypeResolver {
	r := &TypeResolver{
		lookup:      lookup,
		maxEntities: DefaultTypeCheckMaxEntities,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// walkState is the traversal state of one top-level subclass query.
type walkState struct {
	visited map[wbconstraints.EntityID]struct{}
	order   []wbconstraints.EntityID
	budget  int
}

func (s *walkState) dependencies() metadata.Metadata {
	return metadata.OfEntity(s.order...)
}

type walkOutcome int

const (
	walkNotFound walkOutcome = iota
	walkFound
	walkOverflow
)

// walk does a depth-first search of the "subclass of" graph starting at the
// parents of start. Every entity read counts once against the budget.
func (r *TypeResolver) walk(ctx context.Context, start wbconstraints.EntityID, classes []wbconstraints.EntityID, st *walkState) (walkOutcome, error) {
	stack := []wbconstraints.EntityID{start}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return walkNotFound, err
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := st.visited[id]; seen {
			continue
		}
		if len(st.visited) >= st.budget {
			return walkOverflow, nil
		}
		st.visited[id] = struct{}{}
		st.order = append(st.order, id)

		entity, err := r.lookup.GetEntity(ctx, id)
		if err != nil {
			return walkNotFound, err
		}
		if entity == nil {
			continue
		}
		parents := entityValues(entity.StatementsByProperty(schemas.SubclassOfProperty))
		for _, parent := range parents {
			if slices.Contains(classes, parent) {
				return walkFound, nil
			}
		}
		for i := len(parents) - 1; i >= 0; i-- {
			if _, seen := st.visited[parents[i]]; !seen {
				stack = append(stack, parents[i])
			}
		}
	}
	return walkNotFound, nil
}

// IsSubclassOf reports whether id is a transitive subclass of one of classes.
// When the local walk exceeds the budget, the oracle is asked once instead.
func (r *TypeResolver) IsSubclassOf(ctx context.Context, id wbconstraints.EntityID, classes []wbconstraints.EntityID) (bool, metadata.Metadata, error) {
	st := &walkState{visited: make(map[wbconstraints.EntityID]struct{}), budget: r.maxEntities}
	outcome, err := r.walk(ctx, id, classes, st)
	if err != nil {
		return false, st.dependencies(), err
	}
	switch outcome {
	case walkFound:
		return true, st.dependencies(), nil
	case walkNotFound:
		return false, st.dependencies(), nil
	}

	if r.oracle == nil {
		r.logger.Debug("type check budget exhausted without oracle",
			zap.String("entity", id.String()),
			zap.Int("visited", len(st.visited)),
		)
		return false, st.dependencies(), nil
	}

	ctx, span := tracer.Start(ctx, "TypeResolver.OracleFallback")
	defer span.End()
	span.SetAttributes(attribute.String("entity", id.String()), attribute.Int("visited", len(st.visited)))

	if r.onFallback != nil {
		r.onFallback()
	}
	r.logger.Info("type check budget exhausted, asking oracle",
		zap.String("entity", id.String()),
		zap.Int("visited", len(st.visited)),
	)

	ok, caching, err := r.oracle.HasType(ctx, id, classes, false)
	if err != nil {
		span.RecordError(err)
		return false, metadata.Metadata{}, err
	}
	return ok, metadata.OfCaching(caching), nil
}

// HasClassInRelation checks the entity-valued main snaks of statements whose
// property is one of relations. A value that is itself one of classes is a
// direct hit; otherwise each value is checked as a subclass.
func (r *TypeResolver) HasClassInRelation(ctx context.Context, statements []wbconstraints.Statement, relations []wbconstraints.PropertyID, classes []wbconstraints.EntityID) (bool, metadata.Metadata, error) {
	var values []wbconstraints.EntityID
	for _, s := range statements {
		if !slices.Contains(relations, s.PropertyID()) {
			continue
		}
		if id, ok := s.MainSnak.EntityIDValue(); ok {
			values = append(values, id)
		}
	}

	for _, v := range values {
		if slices.Contains(classes, v) {
			return true, metadata.Metadata{}, nil
		}
	}

	collected := make([]metadata.Metadata, 0, len(values))
	for _, v := range values {
		ok, m, err := r.IsSubclassOf(ctx, v, classes)
		collected = append(collected, m)
		if err != nil {
			return false, metadata.Merge(collected...), err
		}
		if ok {
			return true, metadata.Merge(collected...), nil
		}
	}
	return false, metadata.Merge(collected...), nil
}

func entityValues(statements []wbconstraints.Statement) []wbconstraints.EntityID {
	var out []wbconstraints.EntityID
	for _, s := range statements {
		if id, ok := s.MainSnak.EntityIDValue(); ok {
			out = append(out, id)
		}
	}
	return out
}
