package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/client"
)

var _ checker.TypeOracle = (*TypeOracle)(nil)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func sparqlServer(t *testing.T, respond func(query string) (int, string)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.NoError(t, r.ParseForm())
		status, body := respond(r.PostForm.Get("query"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestTypeOracleHasTypeCachesAnswers(t *testing.T) {
	var (
		mu   sync.Mutex
		last string
	)
	seen := func() string {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
	srv, hits := sparqlServer(t, func(query string) (int, string) {
		mu.Lock()
		last = query
		mu.Unlock()
		return http.StatusOK, `{"head":{},"boolean":true}`
	})
	clock := &stepClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	oracle := NewTypeOracle(client.New(srv.URL), time.Hour, WithClock(clock))

	ok, caching, err := oracle.HasType(context.Background(), "Q1", []wbconstraints.EntityID{"Q5", "Q6"}, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, caching.IsCached())
	assert.Contains(t, seen(), "<http://www.wikidata.org/entity/Q1>")
	assert.Contains(t, seen(), "<http://www.wikidata.org/entity/Q5> <http://www.wikidata.org/entity/Q6>")
	assert.Contains(t, seen(), "<http://www.wikidata.org/prop/direct/P31>/<http://www.wikidata.org/prop/direct/P279>*")

	clock.Advance(90 * time.Second)
	ok, caching, err = oracle.HasType(context.Background(), "Q1", []wbconstraints.EntityID{"Q5", "Q6"}, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(90), caching.MaximumAgeInSeconds())
	assert.Equal(t, int32(1), hits.Load())

	_, _, err = oracle.HasType(context.Background(), "Q1", []wbconstraints.EntityID{"Q5", "Q6"}, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.False(t, strings.Contains(seen(), "P31"))
}

func TestTypeOracleHasTypeFailure(t *testing.T) {
	srv, _ := sparqlServer(t, func(string) (int, string) {
		return http.StatusServiceUnavailable, ""
	})
	oracle := NewTypeOracle(client.New(srv.URL), time.Hour)

	_, _, err := oracle.HasType(context.Background(), "Q1", []wbconstraints.EntityID{"Q5"}, false)
	require.Error(t, err)
	assert.True(t, checker.IsOracleError(err))
}

func TestTypeOracleMatchesPattern(t *testing.T) {
	srv, hits := sparqlServer(t, func(query string) (int, string) {
		if strings.Contains(query, `"^(?:[0-9]+)$"`) && strings.Contains(query, `"123"`) {
			return http.StatusOK, `{"head":{"vars":["matches"]},"results":{"bindings":[{"matches":{"type":"literal","value":"true"}}]}}`
		}
		if strings.Contains(query, `"^(?:[0-9]+)$"`) {
			return http.StatusOK, `{"head":{"vars":["matches"]},"results":{"bindings":[{"matches":{"type":"literal","value":"false"}}]}}`
		}
		return http.StatusOK, `{"head":{"vars":["matches"]},"results":{"bindings":[{}]}}`
	})
	oracle := NewTypeOracle(client.New(srv.URL), time.Hour)
	ctx := context.Background()

	ok, err := oracle.MatchesPattern(ctx, "123", "[0-9]+")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = oracle.MatchesPattern(ctx, "abc", "[0-9]+")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = oracle.MatchesPattern(ctx, "abc", "[")
	assert.ErrorIs(t, err, checker.ErrBadPattern)
	_, err = oracle.MatchesPattern(ctx, "abc", "[")
	assert.ErrorIs(t, err, checker.ErrBadPattern)

	_, err = oracle.MatchesPattern(ctx, "123", "[0-9]+")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestTypeOracleMatchesPatternFailure(t *testing.T) {
	srv, _ := sparqlServer(t, func(string) (int, string) {
		return http.StatusInternalServerError, "java.util.concurrent.TimeoutException"
	})
	oracle := NewTypeOracle(client.New(srv.URL), time.Hour)

	_, err := oracle.MatchesPattern(context.Background(), "x", "x")
	require.Error(t, err)
	assert.True(t, checker.IsOracleError(err))
	assert.ErrorIs(t, err, client.ErrQueryTimeout)
}
