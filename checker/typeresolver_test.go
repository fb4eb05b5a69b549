package checker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/metadata"
	"github.com/totegamma/wbconstraints/schemas"
)

func instanceOf(id wbconstraints.EntityID, classes ...wbconstraints.EntityID) []wbconstraints.Statement {
	var out []wbconstraints.Statement
	for i, c := range classes {
		out = append(out, statement(wbconstraints.ComposeGUID(id, fmt.Sprint(i)), itemSnak(schemas.InstanceOfProperty, c)))
	}
	return out
}

var instanceRelation = []wbconstraints.PropertyID{schemas.InstanceOfProperty}

func TestHasClassInRelationDirectHit(t *testing.T) {
	lookup := newMockLookup()
	r := NewTypeResolver(lookup)

	ok, meta, err := r.HasClassInRelation(context.Background(), instanceOf("Q1", "Q5"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, meta.Dependency.IsEmpty())
	assert.Empty(t, lookup.reads)
}

func TestHasClassInRelationTransitive(t *testing.T) {
	lookup := newMockLookup(
		subclassEntity("Q10", "Q11"),
		subclassEntity("Q11", "Q12"),
		subclassEntity("Q12", "Q5"),
	)
	r := NewTypeResolver(lookup)

	ok, meta, err := r.HasClassInRelation(context.Background(), instanceOf("Q1", "Q10"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []wbconstraints.EntityID{"Q10", "Q11", "Q12"}, meta.Dependency.EntityIDs())
	assert.False(t, meta.Caching.IsCached())
}

func TestHasClassInRelationNotFoundRecordsVisited(t *testing.T) {
	lookup := newMockLookup(
		subclassEntity("Q10", "Q11", "Q12"),
		subclassEntity("Q11", "Q13"),
		subclassEntity("Q12", "Q13"),
		subclassEntity("Q13"),
	)
	r := NewTypeResolver(lookup)

	ok, meta, err := r.HasClassInRelation(context.Background(), instanceOf("Q1", "Q10"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []wbconstraints.EntityID{"Q10", "Q11", "Q12", "Q13"}, meta.Dependency.EntityIDs())
	// the diamond Q13 is read once
	assert.Len(t, lookup.reads, 4)
}

func TestHasClassInRelationCycle(t *testing.T) {
	lookup := newMockLookup(
		subclassEntity("Q10", "Q11"),
		subclassEntity("Q11", "Q10"),
	)
	r := NewTypeResolver(lookup)

	ok, _, err := r.HasClassInRelation(context.Background(), instanceOf("Q1", "Q10"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, lookup.reads, 2)
}

// chain builds Q100 -> Q101 -> ... of the given length ending in Q5.
func chain(length int) *mockLookup {
	lookup := newMockLookup()
	for i := 0; i < length; i++ {
		id := wbconstraints.EntityID(fmt.Sprintf("Q%d", 100+i))
		parent := wbconstraints.EntityID(fmt.Sprintf("Q%d", 101+i))
		if i == length-1 {
			parent = "Q5"
		}
		lookup.entities[id] = subclassEntity(id, parent)
	}
	return lookup
}

func TestOverflowFallsBackToOracleOnce(t *testing.T) {
	lookup := chain(50)
	oracle := &mockOracle{hasType: true, caching: metadata.MaxAge(30)}
	fallbacks := 0
	r := NewTypeResolver(lookup, WithOracle(oracle), WithMaxEntities(10), WithFallbackHook(func() { fallbacks++ }))

	ok, meta, err := r.HasClassInRelation(context.Background(), instanceOf("Q1", "Q100"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, oracle.calls)
	assert.Equal(t, 1, fallbacks)
	assert.Equal(t, wbconstraints.EntityID("Q100"), oracle.lastID)
	assert.LessOrEqual(t, len(lookup.reads), 10)
	assert.Equal(t, int64(30), meta.Caching.MaximumAgeInSeconds())
	assert.True(t, meta.Dependency.IsEmpty())
}

func TestOverflowWithoutOracleIsFalse(t *testing.T) {
	lookup := chain(50)
	r := NewTypeResolver(lookup, WithMaxEntities(10))

	ok, meta, err := r.HasClassInRelation(context.Background(), instanceOf("Q1", "Q100"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, lookup.reads, 10)
	assert.Len(t, meta.Dependency.EntityIDs(), 10)
}

func TestWithinBudgetDoesNotAskOracle(t *testing.T) {
	lookup := chain(5)
	oracle := &mockOracle{}
	r := NewTypeResolver(lookup, WithOracle(oracle), WithMaxEntities(10))

	ok, _, err := r.HasClassInRelation(context.Background(), instanceOf("Q1", "Q100"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, oracle.calls)
}

func TestOracleErrorPropagates(t *testing.T) {
	lookup := chain(50)
	oracle := &mockOracle{err: &OracleError{Op: "hasType", Err: errors.New("timeout")}}
	r := NewTypeResolver(lookup, WithOracle(oracle), WithMaxEntities(3))

	_, _, err := r.HasClassInRelation(context.Background(), instanceOf("Q1", "Q100"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	require.Error(t, err)
	assert.True(t, IsOracleError(err))
}

func TestWalkHonorsCancellation(t *testing.T) {
	lookup := chain(5)
	r := NewTypeResolver(lookup)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := r.HasClassInRelation(ctx, instanceOf("Q1", "Q100"), instanceRelation, []wbconstraints.EntityID{"Q5"})
	assert.ErrorIs(t, err, context.Canceled)
}
