package checker

import (
	"context"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/metadata"
)

// EntityLookup reads entities by id. A missing entity is (nil, nil).
type EntityLookup interface {
	GetEntity(ctx context.Context, id wbconstraints.EntityID) (*wbconstraints.Entity, error)
}

// TypeOracle answers class-hierarchy and pattern questions that are too
// expensive to answer locally. Transport failures are reported as *OracleError.
type TypeOracle interface {
	// HasType reports whether id is a (transitive) subclass of one of classes,
	// or an instance of one when withInstance is set.
	HasType(ctx context.Context, id wbconstraints.EntityID, classes []wbconstraints.EntityID, withInstance bool) (bool, metadata.CachingMetadata, error)
	// MatchesPattern returns ErrBadPattern if pattern is not a valid regex.
	MatchesPattern(ctx context.Context, text, pattern string) (bool, error)
}
