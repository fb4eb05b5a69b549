// Package metadata holds the freshness and dependency information that is
// threaded through every check and the result cache.
package metadata

import (
	"slices"

	"github.com/totegamma/wbconstraints"
)

type Metadata struct {
	Caching    CachingMetadata    `json:"caching"`
	Dependency DependencyMetadata `json:"dependency"`
}

func OfCaching(c CachingMetadata) Metadata {
	return Metadata{Caching: c}
}

func OfDependency(d DependencyMetadata) Metadata {
	return Metadata{Dependency: d}
}

func OfEntity(ids ...wbconstraints.EntityID) Metadata {
	return Metadata{Dependency: OfEntityIDs(ids...)}
}

// Merge combines metadata component-wise. Merge() is the identity element.
func Merge(items ...Metadata) Metadata {
	caching := make([]CachingMetadata, 0, len(items))
	deps := make([]DependencyMetadata, 0, len(items))
	for _, item := range items {
		caching = append(caching, item.Caching)
		deps = append(deps, item.Dependency)
	}
	return Metadata{
		Caching:    MergeCaching(caching...),
		Dependency: MergeDependencies(deps...),
	}
}

func (m Metadata) Equal(o Metadata) bool {
	if m.Caching != o.Caching {
		return false
	}
	if !slices.Equal(m.Dependency.entityIDs, o.Dependency.entityIDs) {
		return false
	}
	a, okA := m.Dependency.FutureTime()
	b, okB := o.Dependency.FutureTime()
	return okA == okB && a == b
}
