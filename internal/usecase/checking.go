package usecase

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/metadata"
)

// CheckResults is a batch of results with their merged metadata.
type CheckResults struct {
	Results  []checker.CheckResult
	Metadata metadata.Metadata
}

func NewCheckResults(results []checker.CheckResult) CheckResults {
	return CheckResults{Results: results, Metadata: checker.MergeMetadata(results)}
}

// CheckingResultsSource computes results live through the dispatcher.
type CheckingResultsSource struct {
	dispatcher  *Dispatcher
	concurrency int
}

func NewCheckingResultsSource(dispatcher *Dispatcher, concurrency int) *CheckingResultsSource {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &CheckingResultsSource{dispatcher: dispatcher, concurrency: concurrency}
}

// statementPlaceholder keeps statements without results addressable in the
// output.
func statementPlaceholder(cx checker.Context) []checker.CheckResult {
	if cx.Type != checker.TypeStatement {
		return nil
	}
	return []checker.CheckResult{checker.NewNullResult(cx.Cursor())}
}

// entityPlaceholder carries the dependency on the entity itself, even when it
// has no statements.
func entityPlaceholder(id wbconstraints.EntityID) []checker.CheckResult {
	return []checker.CheckResult{
		checker.NewNullResult(checker.EntityCursor(id)).WithMetadata(metadata.OfEntity(id)),
	}
}

func (s *CheckingResultsSource) GetResults(
	ctx context.Context,
	entityIDs []wbconstraints.EntityID,
	claimIDs []string,
	constraintIDs []string,
	statuses []checker.Status,
) (CheckResults, error) {
	if constraintIDs != nil && len(constraintIDs) == 0 {
		return CheckResults{}, ErrEmptyConstraintFilter
	}

	perEntity := make([][]checker.CheckResult, len(entityIDs))
	perClaim := make([][]checker.CheckResult, len(claimIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range entityIDs {
		g.Go(func() error {
			rs, err := s.dispatcher.CheckEntity(gctx, id, constraintIDs, statementPlaceholder, entityPlaceholder)
			if err != nil {
				return err
			}
			perEntity[i] = rs
			return nil
		})
	}
	for i, guid := range claimIDs {
		g.Go(func() error {
			rs, err := s.dispatcher.CheckStatement(gctx, guid, constraintIDs, statementPlaceholder)
			if err != nil {
				return err
			}
			perClaim[i] = rs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return CheckResults{}, err
	}

	// Metadata covers every result, including the ones filtered out below:
	// a compliance still depends on the entities it looked at.
	var all, results []checker.CheckResult
	for _, rs := range slices.Concat(perEntity, perClaim) {
		all = append(all, rs...)
		results = append(results, filterStatuses(rs, statuses)...)
	}
	return CheckResults{Results: results, Metadata: checker.MergeMetadata(all)}, nil
}

// filterStatuses keeps placeholders and results whose status is in statuses.
// A nil statuses keeps everything.
func filterStatuses(results []checker.CheckResult, statuses []checker.Status) []checker.CheckResult {
	if statuses == nil {
		return results
	}
	out := make([]checker.CheckResult, 0, len(results))
	for _, r := range results {
		if r.IsNull() || slices.Contains(statuses, r.Status) {
			out = append(out, r)
		}
	}
	return out
}
