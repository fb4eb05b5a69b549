package checker

import (
	"context"
	"sync"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/metadata"
	"github.com/totegamma/wbconstraints/schemas"
)

type mockLookup struct {
	mu       sync.Mutex
	entities map[wbconstraints.EntityID]*wbconstraints.Entity
	reads    []wbconstraints.EntityID
}

func newMockLookup(entities ...*wbconstraints.Entity) *mockLookup {
	m := &mockLookup{entities: make(map[wbconstraints.EntityID]*wbconstraints.Entity)}
	for _, e := range entities {
		m.entities[e.ID] = e
	}
	return m
}

func (m *mockLookup) GetEntity(ctx context.Context, id wbconstraints.EntityID) (*wbconstraints.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, id)
	return m.entities[id], nil
}

type mockOracle struct {
	hasType    bool
	caching    metadata.CachingMetadata
	err        error
	matches    bool
	patternErr error
	calls      int
	lastID     wbconstraints.EntityID
}

func (m *mockOracle) HasType(ctx context.Context, id wbconstraints.EntityID, classes []wbconstraints.EntityID, withInstance bool) (bool, metadata.CachingMetadata, error) {
	m.calls++
	m.lastID = id
	return m.hasType, m.caching, m.err
}

func (m *mockOracle) MatchesPattern(ctx context.Context, text, pattern string) (bool, error) {
	m.calls++
	return m.matches, m.patternErr
}

func itemSnak(pid wbconstraints.PropertyID, id wbconstraints.EntityID) wbconstraints.Snak {
	return wbconstraints.NewValueSnak(pid, wbconstraints.NewEntityIDValue(id))
}

func stringSnak(pid wbconstraints.PropertyID, s string) wbconstraints.Snak {
	return wbconstraints.NewValueSnak(pid, wbconstraints.NewStringValue(s))
}

func quantitySnak(pid wbconstraints.PropertyID, amount float64) wbconstraints.Snak {
	return wbconstraints.NewValueSnak(pid, wbconstraints.NewQuantityValue(wbconstraints.QuantityValue{Amount: amount, Unit: wbconstraints.UnitlessUnit}))
}

func timeSnak(pid wbconstraints.PropertyID, t string) wbconstraints.Snak {
	return wbconstraints.NewValueSnak(pid, wbconstraints.NewTimeValue(wbconstraints.MustTimeValue(t)))
}

func statement(guid string, snak wbconstraints.Snak) wbconstraints.Statement {
	return wbconstraints.Statement{GUID: guid, Rank: wbconstraints.RankNormal, MainSnak: snak}
}

// subclassEntity builds an item whose "subclass of" statements point at parents.
func subclassEntity(id wbconstraints.EntityID, parents ...wbconstraints.EntityID) *wbconstraints.Entity {
	e := &wbconstraints.Entity{ID: id, Revision: 1}
	for i, p := range parents {
		e.Statements = append(e.Statements, statement(
			wbconstraints.ComposeGUID(id, string(rune('a'+i))),
			itemSnak(schemas.SubclassOfProperty, p),
		))
	}
	return e
}

func constraint(typeID wbconstraints.EntityID, pid wbconstraints.PropertyID, params Parameters) Constraint {
	return Constraint{ID: pid.String() + "$" + typeID.String(), PropertyID: pid, TypeID: typeID, Parameters: params}
}
