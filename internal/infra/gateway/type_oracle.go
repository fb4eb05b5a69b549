package gateway

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/client"
	"github.com/totegamma/wbconstraints/metadata"
	"github.com/totegamma/wbconstraints/schemas"
)

var tracer = otel.Tracer("gateway")

const (
	DefaultEntityPrefix = "http://www.wikidata.org/entity/"
	DefaultDirectPrefix = "http://www.wikidata.org/prop/direct/"
)

type answer struct {
	value     bool
	badRegex  bool
	fetchedAt time.Time
}

// TypeOracle answers type and regex questions with SPARQL queries. Answers
// are kept in process for the configured TTL and reported with their age.
type TypeOracle struct {
	client       *client.Client
	cache        *cache.Cache
	clock        wbconstraints.Clock
	logger       *zap.Logger
	entityPrefix string
	directPrefix string
}

type TypeOracleOption func(*TypeOracle)

func WithClock(clock wbconstraints.Clock) TypeOracleOption {
	return func(o *TypeOracle) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func WithLogger(l *zap.Logger) TypeOracleOption {
	return func(o *TypeOracle) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrefixes sets the IRI prefixes of entities and direct properties.
func WithPrefixes(entity, direct string) TypeOracleOption {
	return func(o *TypeOracle) {
		o.entityPrefix = entity
		o.directPrefix = direct
	}
}

func NewTypeOracle(cl *client.Client, ttl time.Duration, opts ...TypeOracleOption) *TypeOracle {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	o := &TypeOracle{
		client:       cl,
		cache:        cache.New(ttl, ttl+5*time.Minute),
		clock:        wbconstraints.SystemClock{},
		logger:       zap.NewNop(),
		entityPrefix: DefaultEntityPrefix,
		directPrefix: DefaultDirectPrefix,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *TypeOracle) HasType(ctx context.Context, id wbconstraints.EntityID, classes []wbconstraints.EntityID, withInstance bool) (bool, metadata.CachingMetadata, error) {
	ctx, span := tracer.Start(ctx, "Gateway.TypeOracle.HasType")
	defer span.End()
	span.SetAttributes(attribute.String("entity", id.String()), attribute.Bool("withInstance", withInstance))

	key := "type:" + id.String() + ":" + strconv.FormatBool(withInstance) + ":" + joinIDs(classes)
	if a, ok := o.lookup(key); ok {
		return a.value, metadata.MaxAge(o.age(a)), nil
	}

	query := o.typeQuery(id, classes, withInstance)
	ok, err := o.client.Ask(ctx, query)
	if err != nil {
		span.RecordError(err)
		o.logger.Warn("type query failed", zap.String("entity", id.String()), zap.Error(err))
		return false, metadata.Fresh(), &checker.OracleError{Op: "HasType", Err: err}
	}

	o.cache.SetDefault(key, answer{value: ok, fetchedAt: o.clock.Now()})
	return ok, metadata.Fresh(), nil
}

func (o *TypeOracle) MatchesPattern(ctx context.Context, text, pattern string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Gateway.TypeOracle.MatchesPattern")
	defer span.End()

	key := "regex:" + wbconstraints.HashBytes([]byte(pattern+"\x00"+text))
	if a, ok := o.lookup(key); ok {
		if a.badRegex {
			return false, checker.ErrBadPattern
		}
		return a.value, nil
	}

	query := "SELECT (REGEX(" + client.Literal(text) + ", " + client.Literal("^(?:"+pattern+")$") + ") AS ?matches) {}"
	results, err := o.client.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		o.logger.Warn("regex query failed", zap.String("pattern", pattern), zap.Error(err))
		return false, &checker.OracleError{Op: "MatchesPattern", Err: err}
	}

	a := answer{fetchedAt: o.clock.Now()}
	binding, found := firstBinding(results, "matches")
	if !found {
		// an invalid regex leaves the projection unbound
		a.badRegex = true
	} else {
		a.value = binding.Value == "true"
	}
	o.cache.SetDefault(key, a)

	if a.badRegex {
		return false, checker.ErrBadPattern
	}
	return a.value, nil
}

func (o *TypeOracle) typeQuery(id wbconstraints.EntityID, classes []wbconstraints.EntityID, withInstance bool) string {
	path := "<" + o.directPrefix + schemas.SubclassOfProperty.String() + ">*"
	if withInstance {
		path = "<" + o.directPrefix + schemas.InstanceOfProperty.String() + ">/" + path
	}

	var values strings.Builder
	for i, class := range classes {
		if i > 0 {
			values.WriteByte(' ')
		}
		values.WriteString("<" + o.entityPrefix + class.String() + ">")
	}

	return "ASK {\n" +
		"  BIND(<" + o.entityPrefix + id.String() + "> AS ?item)\n" +
		"  VALUES ?class { " + values.String() + " }\n" +
		"  ?item " + path + " ?class .\n" +
		"}"
}

func (o *TypeOracle) lookup(key string) (answer, bool) {
	x, found := o.cache.Get(key)
	if !found {
		return answer{}, false
	}
	return x.(answer), true
}

func (o *TypeOracle) age(a answer) int64 {
	elapsed := o.clock.Now().Sub(a.fetchedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return int64(math.Ceil(elapsed))
}

func firstBinding(results *client.Results, name string) (client.Binding, bool) {
	if results == nil || len(results.Results.Bindings) == 0 {
		return client.Binding{}, false
	}
	b, ok := results.Results.Bindings[0][name]
	return b, ok
}

func joinIDs(ids []wbconstraints.EntityID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, "|")
}
