package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/client"
	"github.com/totegamma/wbconstraints/internal/config"
	"github.com/totegamma/wbconstraints/internal/infra/cache"
	"github.com/totegamma/wbconstraints/internal/infra/database"
	"github.com/totegamma/wbconstraints/internal/infra/gateway"
	"github.com/totegamma/wbconstraints/internal/infra/repository"
	"github.com/totegamma/wbconstraints/internal/metrics"
	"github.com/totegamma/wbconstraints/internal/service"
	"github.com/totegamma/wbconstraints/internal/usecase"
)

// app holds the wired components shared by the commands.
type app struct {
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	redis      *redis.Client
	signal     *service.PurgeSignal
	results    usecase.ResultsSource
	parameters *usecase.ParameterUsecase
	purge      *usecase.PurgeUsecase
	importer   *usecase.ImportUsecase
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	db, err := database.NewPostgres(cfg.Server.PostgresDsn, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	a := &app{registry: reg, metrics: m}

	if cfg.Server.RedisAddr != "" {
		a.redis = database.NewRedis(cfg.Server.RedisAddr, cfg.Server.RedisPassword, cfg.Server.RedisDB)
		if err := database.PingRedis(ctx, a.redis); err != nil {
			return nil, err
		}
		a.signal = service.NewPurgeSignal(a.redis, cfg.Checks.KeyPrefix, log.Named("signal"))
	}

	var store usecase.KeyValueStore
	switch cfg.Checks.CacheBackend {
	case config.CacheBackendMemcached:
		store = cache.NewMemcachedStore(database.NewMemcached(cfg.Server.MemcachedAddr))
	case config.CacheBackendRedis:
		store = cache.NewRedisStore(a.redis)
	case config.CacheBackendMemory:
		store = cache.NewMemoryStore(cfg.Checks.CacheTTL, cfg.Checks.CacheTTL/2)
	default:
		store = cache.NoopStore{}
	}

	entities := repository.NewEntityRepository(db)
	constraints := repository.NewConstraintRepository(db, cfg.Checks.ConstraintCacheTTL)

	var oracle checker.TypeOracle
	if cfg.Checks.SparqlEndpoint != "" {
		cl := client.New(
			cfg.Checks.SparqlEndpoint,
			client.WithTimeout(cfg.Checks.SparqlTimeout),
			client.WithUserAgent("wbconstraints/"+Version),
		)
		oracle = gateway.NewTypeOracle(cl, cfg.Checks.SparqlCacheTTL, gateway.WithLogger(log.Named("oracle")))
	}

	clock := wbconstraints.SystemClock{}
	resolver := checker.NewTypeResolver(
		entities,
		checker.WithOracle(oracle),
		checker.WithMaxEntities(cfg.Checks.TypeCheckMaxEntities),
		checker.WithResolverLogger(log.Named("resolver")),
		checker.WithFallbackHook(m.IncOracleFallback),
	)
	registry := checker.NewDefaultRegistry(checker.Dependencies{
		Lookup:   entities,
		Resolver: resolver,
		Oracle:   oracle,
		Clock:    clock,
	})

	dispatcher := usecase.NewDispatcher(entities, constraints, registry, log.Named("dispatcher"), m)
	live := usecase.NewCheckingResultsSource(dispatcher, cfg.Checks.CheckConcurrency)
	resultsCache := usecase.NewResultsCache(store, cfg.Checks.KeyPrefix, cfg.Checks.FormatVersion, clock)

	a.results = usecase.NewCachingResultsSource(
		live,
		resultsCache,
		entities,
		clock,
		usecase.CachingOptions{
			TTL:             cfg.Checks.CacheTTL,
			MaxDependencies: cfg.Checks.MaxDependencies,
		},
		log.Named("cache"),
		m,
	)
	a.parameters = usecase.NewParameterUsecase(constraints, registry)

	var publisher usecase.PurgePublisher
	if a.signal != nil {
		publisher = a.signal
	}
	a.purge = usecase.NewPurgeUsecase(resultsCache, publisher, log.Named("purge"))
	a.importer = usecase.NewImportUsecase(entities, constraints, a.purge, log.Named("import"))

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
