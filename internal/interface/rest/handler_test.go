package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/domain"
	"github.com/totegamma/wbconstraints/internal/infra/cache"
	"github.com/totegamma/wbconstraints/internal/usecase"
	"github.com/totegamma/wbconstraints/metadata"
	"github.com/totegamma/wbconstraints/schemas"
)

// --- mocks ---

type mockResultsSource struct {
	results       usecase.CheckResults
	err           error
	entityIDs     []wbconstraints.EntityID
	claimIDs      []string
	constraintIDs []string
	statuses      []checker.Status
}

func (m *mockResultsSource) GetResults(ctx context.Context, entityIDs []wbconstraints.EntityID, claimIDs []string, constraintIDs []string, statuses []checker.Status) (usecase.CheckResults, error) {
	m.entityIDs = entityIDs
	m.claimIDs = claimIDs
	m.constraintIDs = constraintIDs
	m.statuses = statuses
	if m.err != nil {
		return usecase.CheckResults{}, m.err
	}
	if constraintIDs != nil && len(constraintIDs) == 0 {
		return usecase.CheckResults{}, usecase.ErrEmptyConstraintFilter
	}
	return m.results, nil
}

type mockConstraintSource map[wbconstraints.PropertyID][]checker.Constraint

func (m mockConstraintSource) ConstraintsForProperty(ctx context.Context, pid wbconstraints.PropertyID) ([]checker.Constraint, error) {
	return m[pid], nil
}

type fixture struct {
	e       *echo.Echo
	results *mockResultsSource
	store   *cache.MemoryStore
	cache   *usecase.ResultsCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	valid := checker.Constraint{
		ID:         "P1$valid",
		PropertyID: "P1",
		TypeID:     schemas.OneOfConstraint,
		Parameters: checker.Parameters{
			schemas.ItemParameter: {wbconstraints.NewValueSnak(schemas.ItemParameter, wbconstraints.NewEntityIDValue("Q9"))},
		},
	}
	broken := checker.Constraint{ID: "P1$broken", PropertyID: "P1", TypeID: schemas.OneOfConstraint}

	store := cache.NewMemoryStore(time.Hour, time.Hour)
	rc := usecase.NewResultsCache(store, "test", "v1", nil)
	results := &mockResultsSource{}

	h := NewHandler(
		results,
		usecase.NewParameterUsecase(mockConstraintSource{"P1": {valid, broken}}, checker.NewDefaultRegistry(checker.Dependencies{})),
		usecase.NewPurgeUsecase(rc, nil, nil),
	)
	e := echo.New()
	h.RegisterRoutes(e)
	return &fixture{e: e, results: results, store: store, cache: rc}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	res := httptest.NewRecorder()
	f.e.ServeHTTP(res, req)
	return res
}

func sampleResults() []checker.CheckResult {
	qualifier := wbconstraints.NewValueSnak("P2", wbconstraints.NewStringValue("x"))
	stmt := wbconstraints.Statement{
		GUID:       "Q1$a",
		Rank:       wbconstraints.RankNormal,
		MainSnak:   wbconstraints.NewValueSnak("P1", wbconstraints.NewEntityIDValue("Q5")),
		Qualifiers: []wbconstraints.Snak{qualifier},
	}
	entity := &wbconstraints.Entity{ID: "Q1", Revision: 3, Statements: []wbconstraints.Statement{stmt}}
	con := checker.Constraint{ID: "P1$valid", PropertyID: "P1", TypeID: schemas.OneOfConstraint}

	msg := checker.NewMessage("wbqc-violation-message-one-of").WithPropertyID("P1", checker.RolePredicate)
	return []checker.CheckResult{
		checker.NewResult(checker.NewMainSnakContext(entity, stmt), con, checker.StatusViolation, msg),
		checker.NewResult(checker.NewQualifierContext(entity, stmt, qualifier), con, checker.StatusWarning, nil),
		checker.NewNullResult(checker.EntityCursor("Q1")),
		checker.NewNullResult(checker.EntityCursor("Q2")),
	}
}

// --- tests ---

func TestHandleCheck(t *testing.T) {
	f := newFixture(t)
	f.results.results = usecase.NewCheckResults(sampleResults())

	res := f.do(t, http.MethodGet, "/api/v1/check?id=Q1|q2", "")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	assert.Equal(t, []wbconstraints.EntityID{"Q1", "Q2"}, f.results.entityIDs)
	assert.Nil(t, f.results.constraintIDs)
	assert.Equal(t, DefaultStatuses, f.results.statuses)
	assert.Empty(t, res.Header().Get(domain.MaxAgeHeader))

	var body struct {
		Results map[string]struct {
			Claims map[string][]struct {
				ID       string `json:"id"`
				MainSnak struct {
					Results []struct {
						Status  string `json:"status"`
						Message struct {
							Key  string `json:"key"`
							Text string `json:"text"`
						} `json:"message"`
					} `json:"results"`
				} `json:"mainsnak"`
				Qualifiers map[string][]struct {
					Hash    string `json:"hash"`
					Results []struct {
						Status string `json:"status"`
					} `json:"results"`
				} `json:"qualifiers"`
			} `json:"claims"`
		} `json:"wbcheckconstraints"`
		Cached *struct{} `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Nil(t, body.Cached)

	require.Contains(t, body.Results, "Q1")
	require.Contains(t, body.Results, "Q2")
	assert.Empty(t, body.Results["Q2"].Claims)

	statements := body.Results["Q1"].Claims["P1"]
	require.Len(t, statements, 1)
	assert.Equal(t, "Q1$a", statements[0].ID)
	require.Len(t, statements[0].MainSnak.Results, 1)
	assert.Equal(t, "violation", statements[0].MainSnak.Results[0].Status)
	assert.Equal(t, "wbqc-violation-message-one-of", statements[0].MainSnak.Results[0].Message.Key)
	assert.Equal(t, "wbqc-violation-message-one-of(P1)", statements[0].MainSnak.Results[0].Message.Text)

	qualifiers := statements[0].Qualifiers["P2"]
	require.Len(t, qualifiers, 1)
	assert.NotEmpty(t, qualifiers[0].Hash)
	require.Len(t, qualifiers[0].Results, 1)
	assert.Equal(t, "warning", qualifiers[0].Results[0].Status)

	assert.True(t, strings.Index(res.Body.String(), `"Q1"`) < strings.Index(res.Body.String(), `"Q2"`))
}

func TestHandleCheckCached(t *testing.T) {
	f := newFixture(t)
	results := sampleResults()
	for i := range results {
		results[i] = results[i].WithMetadata(metadata.OfCaching(metadata.MaxAge(42)))
	}
	f.results.results = usecase.NewCheckResults(results)

	res := f.do(t, http.MethodGet, "/api/v1/check?id=Q1", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "42", res.Header().Get(domain.MaxAgeHeader))
	assert.Contains(t, res.Body.String(), `"cached":{"maxage":42}`)
}

func TestHandleCheckQueryParameters(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/api/v1/check?claimid=Q1$a&constraintid=P1$valid&status=violation|compliance", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, f.results.entityIDs)
	assert.Equal(t, []string{"Q1$a"}, f.results.claimIDs)
	assert.Equal(t, []string{"P1$valid"}, f.results.constraintIDs)
	assert.Equal(t, []checker.Status{checker.StatusViolation, checker.StatusCompliance}, f.results.statuses)

	res = f.do(t, http.MethodGet, "/api/v1/check?id=Q1&status=*", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, f.results.statuses)
}

func TestHandleCheckBadRequests(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{
		"/api/v1/check",
		"/api/v1/check?id=nope",
		"/api/v1/check?claimid=nodollar",
		"/api/v1/check?id=Q1&status=bogus",
		"/api/v1/check?id=Q1&status=null",
		"/api/v1/check?id=Q1&constraintid=",
	} {
		res := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, res.Code, target)
	}
}

func TestHandleCheckInternalError(t *testing.T) {
	f := newFixture(t)
	f.results.err = context.DeadlineExceeded

	res := f.do(t, http.MethodGet, "/api/v1/check?id=Q1", "")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestHandleConstraintParameters(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/api/v1/check-parameters?propertyid=P1", "")
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Reports map[string]map[string]struct {
			Status   string `json:"status"`
			Problems []struct {
				Key string `json:"key"`
			} `json:"problems"`
		} `json:"wbcheckconstraintparameters"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "okay", body.Reports["P1"]["P1$valid"].Status)
	assert.Equal(t, "not-okay", body.Reports["P1"]["P1$broken"].Status)
	assert.NotEmpty(t, body.Reports["P1"]["P1$broken"].Problems)

	res = f.do(t, http.MethodGet, "/api/v1/check-parameters?constraintid=P1$valid", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"P1$valid":{"status":"okay"}`)

	res = f.do(t, http.MethodGet, "/api/v1/check-parameters?constraintid=P1$missing", "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = f.do(t, http.MethodGet, "/api/v1/check-parameters", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodGet, "/api/v1/check-parameters?propertyid=Q1", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHandlePurge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.Set(ctx, "Q1", usecase.CachedEntry{}, time.Hour))
	_, _, ok, err := f.cache.Get(ctx, "Q1")
	require.NoError(t, err)
	require.True(t, ok)

	res := f.do(t, http.MethodPost, "/api/v1/purge", `{"ids":["Q1"]}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	_, _, ok, err = f.cache.Get(ctx, "Q1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, f.store.ItemCount())

	res = f.do(t, http.MethodPost, "/api/v1/purge", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodPost, "/api/v1/purge", `{"ids":["bogus"]}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
