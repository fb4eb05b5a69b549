package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/schemas"
)

func newTestDispatcher(repo *mockEntityRepo, cons *mockConstraintSource, spy *spyChecker) *Dispatcher {
	registry := checker.NewDefaultRegistry(checker.Dependencies{Lookup: repo})
	if spy != nil {
		registry.Register(spyType, spy)
	}
	return NewDispatcher(repo, cons, registry, nil, nil)
}

func TestCheckEntityOneOf(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	cons := newMockConstraintSource(oneOf("P1$c1", "P1", "Q2", "Q3"))
	d := newTestDispatcher(repo, cons, nil)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusCompliance, results[0].Status)
	assert.Equal(t, "P1$c1", results[0].Constraint.ID)
	assert.True(t, results[0].Metadata.Dependency.Contains("Q1"))

	cons.set("P1", oneOf("P1$c1", "P1", "Q3", "Q4"))
	results, err = d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusViolation, results[0].Status)
	assert.Equal(t, "wbqc-violation-message-one-of", results[0].Message.Key)
}

func TestCheckEntityMissingYieldsEntityDefaults(t *testing.T) {
	d := newTestDispatcher(newMockEntityRepo(), newMockConstraintSource(), nil)

	results, err := d.CheckEntity(context.Background(), "Q404", nil, statementPlaceholder, entityPlaceholder)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].IsNull())
	assert.Equal(t, wbconstraints.EntityID("Q404"), results[0].EntityID())
	assert.Equal(t, []wbconstraints.EntityID{"Q404"}, results[0].Metadata.Dependency.EntityIDs())
}

func TestCheckEntityPlaceholders(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1,
		statement("Q1$a", itemSnak("P1", "Q2")),
		statement("Q1$b", itemSnak("P7", "Q2")),
	))
	cons := newMockConstraintSource(oneOf("P1$c1", "P1", "Q2"))
	d := newTestDispatcher(repo, cons, nil)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, statementPlaceholder, entityPlaceholder)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, checker.StatusCompliance, results[0].Status)
	assert.True(t, results[1].IsNull())
	assert.Equal(t, "Q1$a", results[1].Cursor.StatementGUID)
	assert.True(t, results[2].IsNull())
	assert.Equal(t, "Q1$b", results[2].Cursor.StatementGUID)
	assert.Equal(t, checker.TypeEntity, results[3].Cursor.Type)
}

func TestCheckEntityConstraintFilter(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	cons := newMockConstraintSource(
		oneOf("P1$c1", "P1", "Q2"),
		oneOf("P1$c2", "P1", "Q3"),
	)
	d := newTestDispatcher(repo, cons, nil)

	_, err := d.CheckEntity(context.Background(), "Q1", []string{}, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyConstraintFilter)

	results, err := d.CheckEntity(context.Background(), "Q1", []string{"P1$c2"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "P1$c2", results[0].Constraint.ID)
	assert.Equal(t, checker.StatusViolation, results[0].Status)
}

func TestConstraintsLoadedOncePerProperty(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1,
		statement("Q1$a", itemSnak("P1", "Q2")),
		statement("Q1$b", itemSnak("P1", "Q3")),
	))
	cons := newMockConstraintSource(oneOf("P1$c1", "P1", "Q2"))
	d := newTestDispatcher(repo, cons, nil)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []checker.Status{checker.StatusCompliance, checker.StatusViolation}, statusesOf(results))
	assert.Equal(t, 1, cons.calls)
}

func TestUnknownConstraintTypeIsTodo(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	cons := newMockConstraintSource(checker.Constraint{ID: "P1$x", PropertyID: "P1", TypeID: "Q123456"})
	d := newTestDispatcher(repo, cons, nil)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusTodo, results[0].Status)
	assert.Equal(t, NotImplementedMessageKey, results[0].Message.Key)
	assert.False(t, isCheckFailure(results[0]))
}

func TestQualifierContextNotInScope(t *testing.T) {
	st := statement("Q1$a", itemSnak("P1", "Q2"))
	st.Qualifiers = []wbconstraints.Snak{itemSnak("P2", "Q3")}
	repo := newMockEntityRepo(item("Q1", 1, st))
	spy := newSpyChecker(checker.StatusCompliance)
	cons := newMockConstraintSource(spyConstraint("P2$s", "P2", nil))
	d := newTestDispatcher(repo, cons, spy)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusNotInScope, results[0].Status)
	assert.Equal(t, checker.TypeQualifier, results[0].Cursor.Type)
	assert.Equal(t, 0, spy.calls)
}

func TestReferenceContextTodo(t *testing.T) {
	st := statement("Q1$a", itemSnak("P1", "Q2"))
	st.References = []wbconstraints.Reference{{Snaks: []wbconstraints.Snak{itemSnak("P3", "Q4")}}}
	repo := newMockEntityRepo(item("Q1", 1, st))
	spy := newSpyChecker(checker.StatusCompliance)
	cons := newMockConstraintSource(spyConstraint("P3$s", "P3", nil))
	d := newTestDispatcher(repo, cons, spy)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusTodo, results[0].Status)
	assert.Equal(t, checker.TypeReference, results[0].Cursor.Type)
	assert.NotEmpty(t, results[0].Cursor.ReferenceHash)
	assert.Equal(t, 0, spy.calls)
}

func TestExplicitConstraintScope(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	spy := newSpyChecker(checker.StatusCompliance)
	cons := newMockConstraintSource(spyConstraint("P1$s", "P1", checker.Parameters{
		schemas.ConstraintScopeParameter: {itemSnak(schemas.ConstraintScopeParameter, schemas.ScopeQualifier)},
	}))
	d := newTestDispatcher(repo, cons, spy)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusNotInScope, results[0].Status)
	assert.Equal(t, 0, spy.calls)
}

func TestUnsupportedEntityType(t *testing.T) {
	repo := newMockEntityRepo(item("P5", 1, statement("P5$a", itemSnak("P1", "Q2"))))
	spy := newSpyChecker(checker.StatusCompliance)
	cons := newMockConstraintSource(spyConstraint("P1$s", "P1", nil))
	d := newTestDispatcher(repo, cons, spy)

	results, err := d.CheckEntity(context.Background(), "P5", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusNotInScope, results[0].Status)
	assert.Equal(t, 0, spy.calls)
}

func TestExceptionSkipsChecker(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	spy := newSpyChecker(checker.StatusViolation)
	cons := newMockConstraintSource(spyConstraint("P1$s", "P1", checker.Parameters{
		schemas.ExceptionParameter: {itemSnak(schemas.ExceptionParameter, "Q1")},
	}))
	d := newTestDispatcher(repo, cons, spy)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusException, results[0].Status)
	assert.Equal(t, ExceptionMessageKey, results[0].Message.Key)
	assert.Equal(t, 0, spy.calls)
}

func TestParameterErrorBecomesBadParameters(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	cons := newMockConstraintSource(checker.Constraint{ID: "P1$c", PropertyID: "P1", TypeID: schemas.OneOfConstraint})
	d := newTestDispatcher(repo, cons, nil)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusBadParameters, results[0].Status)
	require.NotNil(t, results[0].Message)
	assert.Equal(t, "wbqc-violation-message-parameter-needed", results[0].Message.Key)
	assert.True(t, results[0].Metadata.Dependency.Contains("Q1"))
}

func TestConstraintStatusMapsViolations(t *testing.T) {
	tests := []struct {
		name   string
		status wbconstraints.EntityID
		want   checker.Status
	}{
		{"normal", "", checker.StatusWarning},
		{"mandatory", schemas.MandatoryStatus, checker.StatusViolation},
		{"suggestion", schemas.SuggestionStatus, checker.StatusSuggestion},
		{"malformed", "Q5", checker.StatusBadParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := checker.Parameters{}
			if tt.status != "" {
				params[schemas.ConstraintStatusParameter] = []wbconstraints.Snak{itemSnak(schemas.ConstraintStatusParameter, tt.status)}
			}
			repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
			cons := newMockConstraintSource(spyConstraint("P1$s", "P1", params))
			d := newTestDispatcher(repo, cons, newSpyChecker(checker.StatusViolation))

			results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.want, results[0].Status)
		})
	}
}

func TestComplianceIgnoresConstraintStatus(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	cons := newMockConstraintSource(spyConstraint("P1$s", "P1", checker.Parameters{
		schemas.ConstraintStatusParameter: {itemSnak(schemas.ConstraintStatusParameter, "Q5")},
	}))
	d := newTestDispatcher(repo, cons, newSpyChecker(checker.StatusCompliance))

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []checker.Status{checker.StatusCompliance}, statusesOf(results))
}

func TestOracleErrorBecomesTodo(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	spy := newSpyChecker(checker.StatusCompliance)
	spy.err = &checker.OracleError{Op: "hasType", Err: errors.New("timeout")}
	cons := newMockConstraintSource(spyConstraint("P1$s", "P1", nil), oneOf("P1$c1", "P1", "Q2"))
	d := newTestDispatcher(repo, cons, spy)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, checker.StatusTodo, results[0].Status)
	assert.Equal(t, SparqlErrorMessageKey, results[0].Message.Key)
	assert.True(t, isCheckFailure(results[0]))
	assert.Equal(t, checker.StatusCompliance, results[1].Status)
}

func TestUnexpectedCheckerErrorDegrades(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	spy := newSpyChecker(checker.StatusCompliance)
	spy.err = errors.New("connection reset")
	cons := newMockConstraintSource(spyConstraint("P1$s", "P1", nil))
	d := newTestDispatcher(repo, cons, spy)

	results, err := d.CheckEntity(context.Background(), "Q1", nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, CheckFailedMessageKey, results[0].Message.Key)
}

func TestCancellationAbortsBatch(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q2"))))
	cons := newMockConstraintSource(oneOf("P1$c1", "P1", "Q2"))
	d := newTestDispatcher(repo, cons, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.CheckEntity(ctx, "Q1", nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckStatement(t *testing.T) {
	repo := newMockEntityRepo(item("Q1", 1,
		statement("Q1$a", itemSnak("P1", "Q2")),
		statement("Q1$b", itemSnak("P1", "Q9")),
	))
	cons := newMockConstraintSource(oneOf("P1$c1", "P1", "Q2"))
	d := newTestDispatcher(repo, cons, nil)

	results, err := d.CheckStatement(context.Background(), "Q1$b", nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Q1$b", results[0].Cursor.StatementGUID)
	assert.Equal(t, checker.StatusViolation, results[0].Status)

	results, err = d.CheckStatement(context.Background(), "Q1$zzz", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = d.CheckStatement(context.Background(), "not-a-guid", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
