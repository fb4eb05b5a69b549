package usecase

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/metrics"
	"github.com/totegamma/wbconstraints/metadata"
)

// CachedStatuses are the statuses whose results are stored in the cache.
// Placeholder results are stored as well.
var CachedStatuses = []checker.Status{
	checker.StatusViolation,
	checker.StatusWarning,
	checker.StatusSuggestion,
	checker.StatusBadParameters,
}

type CachingOptions struct {
	TTL             time.Duration
	MaxDependencies int
}

// CachingResultsSource serves whole-entity results from the ResultsCache and
// falls back to a live ResultsSource for everything else.
type CachingResultsSource struct {
	source    ResultsSource
	cache     *ResultsCache
	revisions RevisionStore
	clock     wbconstraints.Clock
	opts      CachingOptions
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewCachingResultsSource(
	source ResultsSource,
	cache *ResultsCache,
	revisions RevisionStore,
	clock wbconstraints.Clock,
	opts CachingOptions,
	logger *zap.Logger,
	m *metrics.Metrics,
) *CachingResultsSource {
	if clock == nil {
		clock = wbconstraints.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingResultsSource{
		source:    source,
		cache:     cache,
		revisions: revisions,
		clock:     clock,
		opts:      opts,
		logger:    logger,
		metrics:   m,
	}
}

// canUseStoredResults: cache entries hold complete entities, so only
// unfiltered entity requests for cached statuses can be answered from them.
func canUseStoredResults(claimIDs []string, constraintIDs []string, statuses []checker.Status) bool {
	if len(claimIDs) > 0 || constraintIDs != nil || statuses == nil {
		return false
	}
	for _, s := range statuses {
		if s != checker.StatusNull && !slices.Contains(CachedStatuses, s) {
			return false
		}
	}
	return true
}

// canStoreResults: only a batch holding every cached status for every
// constraint may be stored.
func canStoreResults(constraintIDs []string, statuses []checker.Status) bool {
	if constraintIDs != nil {
		return false
	}
	if statuses == nil {
		return true
	}
	for _, s := range CachedStatuses {
		if !slices.Contains(statuses, s) {
			return false
		}
	}
	return true
}

func (s *CachingResultsSource) GetResults(
	ctx context.Context,
	entityIDs []wbconstraints.EntityID,
	claimIDs []string,
	constraintIDs []string,
	statuses []checker.Status,
) (CheckResults, error) {
	ctx, span := tracer.Start(ctx, "CachingResultsSource.GetResults")
	defer span.End()

	var results []checker.CheckResult
	var metas []metadata.Metadata
	remaining := entityIDs

	if canUseStoredResults(claimIDs, constraintIDs, statuses) {
		remaining = nil
		for _, id := range entityIDs {
			stored, ok := s.GetStoredResults(ctx, id, 0)
			if !ok {
				remaining = append(remaining, id)
				continue
			}
			results = append(results, filterStatuses(stored.Results, statuses)...)
			metas = append(metas, stored.Metadata)
		}
	}
	span.SetAttributes(
		attribute.Int("hits", len(entityIDs)-len(remaining)),
		attribute.Int("misses", len(remaining)),
	)

	if len(remaining) > 0 {
		// Entries are stored from the unfiltered results so that failed
		// checks and the dependencies of every result are seen.
		store := canStoreResults(constraintIDs, statuses)
		liveStatuses := statuses
		if store {
			liveStatuses = nil
		}
		live, err := s.source.GetResults(ctx, remaining, nil, constraintIDs, liveStatuses)
		if err != nil {
			span.RecordError(err)
			return CheckResults{}, err
		}
		if store {
			for _, id := range remaining {
				s.StoreResults(ctx, id, resultsOfEntity(live.Results, id))
			}
		}
		results = append(results, filterStatuses(live.Results, statuses)...)
		metas = append(metas, live.Metadata)
	}

	if len(claimIDs) > 0 {
		live, err := s.source.GetResults(ctx, nil, claimIDs, constraintIDs, statuses)
		if err != nil {
			span.RecordError(err)
			return CheckResults{}, err
		}
		results = append(results, live.Results...)
		metas = append(metas, live.Metadata)
	}

	return CheckResults{Results: results, Metadata: metadata.Merge(metas...)}, nil
}

func resultsOfEntity(results []checker.CheckResult, id wbconstraints.EntityID) []checker.CheckResult {
	var out []checker.CheckResult
	for _, r := range results {
		if r.EntityID() == id {
			out = append(out, r)
		}
	}
	return out
}

// GetStoredResults returns the cached results of id if they are still valid.
// A positive forRevision demands that the entry is not older than that
// revision of id. Every failure is treated as a miss.
func (s *CachingResultsSource) GetStoredResults(ctx context.Context, id wbconstraints.EntityID, forRevision int64) (CheckResults, bool) {
	entry, age, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("failed to read cached results", zap.String("entity", id.String()), zap.Error(err))
		s.metrics.IncCacheLookup("error")
		return CheckResults{}, false
	}
	if !ok {
		s.metrics.IncCacheLookup("miss")
		return CheckResults{}, false
	}

	revisions := make(map[wbconstraints.EntityID]int64, len(entry.LatestRevisionIDs))
	for k, v := range entry.LatestRevisionIDs {
		revisions[k] = v
	}
	if forRevision > 0 {
		if stored, ok := revisions[id]; ok {
			revisions[id] = min(stored, forRevision)
		} else {
			revisions[id] = forRevision
		}
	}

	if entry.FutureTime != nil && !entry.FutureTime.IsInFuture(s.clock) {
		s.metrics.IncCacheLookup("invalid")
		return CheckResults{}, false
	}

	ids := make([]wbconstraints.EntityID, 0, len(revisions))
	for k := range revisions {
		ids = append(ids, k)
	}
	slices.Sort(ids)

	current, err := s.revisions.LatestRevisions(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to resolve revisions of cached results", zap.String("entity", id.String()), zap.Error(err))
		s.metrics.IncCacheLookup("error")
		return CheckResults{}, false
	}
	for _, k := range ids {
		rev, ok := current[k]
		if !ok || rev != revisions[k] {
			s.metrics.IncCacheLookup("invalid")
			return CheckResults{}, false
		}
	}

	dependency := metadata.OfEntityIDs(ids...)
	if entry.FutureTime != nil {
		dependency = metadata.MergeDependencies(dependency, metadata.OfFutureTime(*entry.FutureTime))
	}
	meta := metadata.Metadata{
		Caching:    metadata.MaxAge(age),
		Dependency: dependency,
	}

	results := checker.DeserializeResults(entry.Results)
	for i := range results {
		results[i] = results[i].WithMetadata(meta)
	}

	s.metrics.IncCacheLookup("hit")
	return CheckResults{Results: results, Metadata: meta}, true
}

// StoreResults writes the results of id to the cache unless they cannot be
// given a sound freshness baseline. Failures are logged, never returned.
func (s *CachingResultsSource) StoreResults(ctx context.Context, id wbconstraints.EntityID, results []checker.CheckResult) {
	if ctx.Err() != nil {
		return
	}

	if slices.ContainsFunc(results, isCheckFailure) {
		s.logger.Info("not caching results with failed checks", zap.String("entity", id.String()))
		s.metrics.IncCacheWrite("skipped-failure")
		return
	}

	meta := checker.MergeMetadata(results)
	ids := meta.Dependency.EntityIDs()

	if len(ids) == 0 {
		s.logger.Warn("cached results have no dependencies", zap.String("entity", id.String()))
	}
	if s.opts.MaxDependencies > 0 && len(ids) > s.opts.MaxDependencies {
		s.logger.Info("not caching results with too many dependencies",
			zap.String("entity", id.String()),
			zap.Int("dependencies", len(ids)),
		)
		s.metrics.IncCacheWrite("skipped-dependencies")
		return
	}

	revisions := make(map[wbconstraints.EntityID]int64, len(ids))
	if len(ids) > 0 {
		current, err := s.revisions.LatestRevisions(ctx, ids)
		if err != nil {
			s.logger.Warn("failed to resolve revisions, not caching", zap.String("entity", id.String()), zap.Error(err))
			s.metrics.IncCacheWrite("skipped-revisions")
			return
		}
		for _, dep := range ids {
			rev, ok := current[dep]
			if !ok {
				s.logger.Info("dependency has no revision, not caching",
					zap.String("entity", id.String()),
					zap.String("dependency", dep.String()),
				)
				s.metrics.IncCacheWrite("skipped-revisions")
				return
			}
			revisions[dep] = rev
		}
	}

	entry := CachedEntry{
		Results:           checker.SerializeResults(cacheable(results, id)),
		LatestRevisionIDs: revisions,
	}
	if t, ok := meta.Dependency.FutureTime(); ok {
		entry.FutureTime = &t
	}

	if err := s.cache.Set(ctx, id, entry, s.opts.TTL); err != nil {
		s.logger.Warn("failed to store cached results", zap.String("entity", id.String()), zap.Error(err))
		s.metrics.IncCacheWrite("error")
		return
	}
	s.metrics.IncCacheWrite("stored")
}

func cacheable(results []checker.CheckResult, id wbconstraints.EntityID) []checker.CheckResult {
	out := make([]checker.CheckResult, 0, len(results))
	for _, r := range results {
		if r.EntityID() != id {
			continue
		}
		if r.IsNull() || slices.Contains(CachedStatuses, r.Status) {
			out = append(out, r)
		}
	}
	return out
}
