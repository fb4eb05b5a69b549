package metadata

import (
	"encoding/json"
	"slices"

	"github.com/totegamma/wbconstraints"
)

// DependencyMetadata lists the entities a value depends on, and optionally
// the time until which it stays valid.
type DependencyMetadata struct {
	entityIDs  []wbconstraints.EntityID
	futureTime *wbconstraints.TimeValue
}

func Blank() DependencyMetadata {
	return DependencyMetadata{}
}

func OfEntityIDs(ids ...wbconstraints.EntityID) DependencyMetadata {
	return DependencyMetadata{entityIDs: normalizeIDs(ids)}
}

func OfFutureTime(t wbconstraints.TimeValue) DependencyMetadata {
	return DependencyMetadata{futureTime: &t}
}

// EntityIDs returns a sorted copy of the dependency set.
func (d DependencyMetadata) EntityIDs() []wbconstraints.EntityID {
	return slices.Clone(d.entityIDs)
}

func (d DependencyMetadata) FutureTime() (wbconstraints.TimeValue, bool) {
	if d.futureTime == nil {
		return wbconstraints.TimeValue{}, false
	}
	return *d.futureTime, true
}

func (d DependencyMetadata) IsEmpty() bool {
	return len(d.entityIDs) == 0 && d.futureTime == nil
}

func (d DependencyMetadata) Contains(id wbconstraints.EntityID) bool {
	_, found := slices.BinarySearch(d.entityIDs, id)
	return found
}

func MergeDependencies(items ...DependencyMetadata) DependencyMetadata {
	var ids []wbconstraints.EntityID
	var future *wbconstraints.TimeValue
	for _, item := range items {
		ids = append(ids, item.entityIDs...)
		if item.futureTime == nil {
			continue
		}
		if future == nil || earlier(*item.futureTime, *future) {
			t := *item.futureTime
			future = &t
		}
	}
	return DependencyMetadata{entityIDs: normalizeIDs(ids), futureTime: future}
}

// earlier breaks ties between equal instants on the serialized form so that
// merging stays order independent.
func earlier(a, b wbconstraints.TimeValue) bool {
	if c := a.Compare(b); c != 0 {
		return c < 0
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Precision != b.Precision {
		return a.Precision < b.Precision
	}
	return a.CalendarModel < b.CalendarModel
}

func normalizeIDs(ids []wbconstraints.EntityID) []wbconstraints.EntityID {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

type dependencyJSON struct {
	EntityIDs  []wbconstraints.EntityID `json:"entityIds,omitempty"`
	FutureTime *wbconstraints.TimeValue `json:"futureTime,omitempty"`
}

func (d DependencyMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(dependencyJSON{EntityIDs: d.entityIDs, FutureTime: d.futureTime})
}

func (d *DependencyMetadata) UnmarshalJSON(b []byte) error {
	var v dependencyJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = DependencyMetadata{entityIDs: normalizeIDs(v.EntityIDs), futureTime: v.FutureTime}
	return nil
}
