package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
)

// CachedEntry is the value stored per entity. Changing its shape requires a
// new format version.
type CachedEntry struct {
	Results           []checker.StoredResult           `json:"results"`
	LatestRevisionIDs map[wbconstraints.EntityID]int64 `json:"latestRevisionIds"`
	FutureTime        *wbconstraints.TimeValue         `json:"futureTime,omitempty"`
}

type envelope struct {
	StoredAt time.Time   `json:"storedAt"`
	Value    CachedEntry `json:"value"`
}

// ResultsCache stores CachedEntry values per entity in a KeyValueStore under
// keys namespaced by prefix and format version.
type ResultsCache struct {
	store         KeyValueStore
	prefix        string
	formatVersion string
	clock         wbconstraints.Clock
}

func NewResultsCache(store KeyValueStore, prefix, formatVersion string, clock wbconstraints.Clock) *ResultsCache {
	if clock == nil {
		clock = wbconstraints.SystemClock{}
	}
	return &ResultsCache{
		store:         store,
		prefix:        prefix,
		formatVersion: formatVersion,
		clock:         clock,
	}
}

func (c *ResultsCache) Key(id wbconstraints.EntityID) string {
	return c.prefix + ":checkConstraints:" + c.formatVersion + ":" + id.String()
}

// Get returns the entry stored for id and its age in seconds. ok is false on
// a miss.
func (c *ResultsCache) Get(ctx context.Context, id wbconstraints.EntityID) (entry CachedEntry, age int64, ok bool, err error) {
	raw, err := c.store.Get(ctx, c.Key(id))
	if errors.Is(err, ErrCacheMiss) {
		return CachedEntry{}, 0, false, nil
	}
	if err != nil {
		return CachedEntry{}, 0, false, pkgerrors.Wrap(err, "failed to read cached results")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return CachedEntry{}, 0, false, pkgerrors.Wrap(err, "failed to decode cached results")
	}

	elapsed := c.clock.Now().Sub(env.StoredAt).Seconds()
	if elapsed > 0 {
		age = int64(math.Ceil(elapsed))
	}
	return env.Value, age, true, nil
}

func (c *ResultsCache) Set(ctx context.Context, id wbconstraints.EntityID, entry CachedEntry, ttl time.Duration) error {
	raw, err := json.Marshal(envelope{StoredAt: c.clock.Now(), Value: entry})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode cached results")
	}
	if err := c.store.Set(ctx, c.Key(id), raw, ttl); err != nil {
		return pkgerrors.Wrap(err, "failed to store cached results")
	}
	return nil
}

func (c *ResultsCache) Delete(ctx context.Context, id wbconstraints.EntityID) error {
	return c.store.Delete(ctx, c.Key(id))
}
