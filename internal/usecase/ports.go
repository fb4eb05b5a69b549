package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
)

// RevisionStore resolves the latest revision of entities. Entities that do not
// exist are absent from the returned map.
type RevisionStore interface {
	LatestRevisions(ctx context.Context, ids []wbconstraints.EntityID) (map[wbconstraints.EntityID]int64, error)
}

// ConstraintSource lists the constraints defined on a property, in their
// stored order.
type ConstraintSource interface {
	ConstraintsForProperty(ctx context.Context, pid wbconstraints.PropertyID) ([]checker.Constraint, error)
}

// EntityRepository defines persistence/lookup for entities.
type EntityRepository interface {
	checker.EntityLookup
	RevisionStore
	Save(ctx context.Context, entity *wbconstraints.Entity) (*wbconstraints.Entity, error)
}

// ConstraintRepository defines persistence/lookup for constraints.
type ConstraintRepository interface {
	ConstraintSource
	Get(ctx context.Context, constraintID string) (checker.Constraint, error)
	Replace(ctx context.Context, pid wbconstraints.PropertyID, constraints []checker.Constraint) error
}

// KeyValueStore is a TTL cache of opaque values.
type KeyValueStore interface {
	// Get returns ErrCacheMiss when key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PurgePublisher broadcasts purged entity ids to other instances.
type PurgePublisher interface {
	PublishPurge(ctx context.Context, ids []wbconstraints.EntityID) error
}

// ResultsSource produces check results for entities and statements.
//
// constraintIDs nil means every constraint; a non-nil empty slice is rejected
// with ErrEmptyConstraintFilter. statuses nil means every status. Placeholder
// results are always returned regardless of statuses.
type ResultsSource interface {
	GetResults(ctx context.Context, entityIDs []wbconstraints.EntityID, claimIDs []string, constraintIDs []string, statuses []checker.Status) (CheckResults, error)
}

var (
	ErrCacheMiss             = errors.New("cache miss")
	ErrEmptyConstraintFilter = errors.New("constraint filter must not be empty")
)
