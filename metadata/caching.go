package metadata

import "encoding/json"

// CachingMetadata describes how stale a value may be.
// The zero value is fresh.
type CachingMetadata struct {
	maxAge int64
}

func Fresh() CachingMetadata {
	return CachingMetadata{}
}

// MaxAge returns metadata for a value that may be up to seconds old.
// Non-positive ages are fresh.
func MaxAge(seconds int64) CachingMetadata {
	if seconds <= 0 {
		return CachingMetadata{}
	}
	return CachingMetadata{maxAge: seconds}
}

func (c CachingMetadata) IsCached() bool {
	return c.maxAge > 0
}

func (c CachingMetadata) MaximumAgeInSeconds() int64 {
	return c.maxAge
}

func MergeCaching(items ...CachingMetadata) CachingMetadata {
	var out CachingMetadata
	for _, item := range items {
		if item.maxAge > out.maxAge {
			out.maxAge = item.maxAge
		}
	}
	return out
}

type cachingJSON struct {
	MaxAge int64 `json:"maxAge,omitempty"`
}

func (c CachingMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(cachingJSON{MaxAge: c.maxAge})
}

func (c *CachingMetadata) UnmarshalJSON(b []byte) error {
	var v cachingJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = MaxAge(v.MaxAge)
	return nil
}
