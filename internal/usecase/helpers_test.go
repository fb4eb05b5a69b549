package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/domain"
	"github.com/totegamma/wbconstraints/schemas"
)

type mockEntityRepo struct {
	mu          sync.Mutex
	entities    map[wbconstraints.EntityID]*wbconstraints.Entity
	revisionErr error
	revisions   int
}

func newMockEntityRepo(entities ...*wbconstraints.Entity) *mockEntityRepo {
	m := &mockEntityRepo{entities: make(map[wbconstraints.EntityID]*wbconstraints.Entity)}
	for _, e := range entities {
		m.entities[e.ID] = e
	}
	return m
}

func (m *mockEntityRepo) GetEntity(ctx context.Context, id wbconstraints.EntityID) (*wbconstraints.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entities[id], nil
}

func (m *mockEntityRepo) LatestRevisions(ctx context.Context, ids []wbconstraints.EntityID) (map[wbconstraints.EntityID]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revisions++
	if m.revisionErr != nil {
		return nil, m.revisionErr
	}
	out := make(map[wbconstraints.EntityID]int64)
	for _, id := range ids {
		if e, ok := m.entities[id]; ok {
			out[id] = e.Revision
		}
	}
	return out, nil
}

func (m *mockEntityRepo) Save(ctx context.Context, e *wbconstraints.Entity) (*wbconstraints.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Revision++
	m.entities[e.ID] = e
	return e, nil
}

type mockConstraintSource struct {
	mu          sync.Mutex
	constraints map[wbconstraints.PropertyID][]checker.Constraint
	calls       int
}

func newMockConstraintSource(cons ...checker.Constraint) *mockConstraintSource {
	m := &mockConstraintSource{constraints: make(map[wbconstraints.PropertyID][]checker.Constraint)}
	for _, c := range cons {
		m.constraints[c.PropertyID] = append(m.constraints[c.PropertyID], c)
	}
	return m
}

func (m *mockConstraintSource) ConstraintsForProperty(ctx context.Context, pid wbconstraints.PropertyID) ([]checker.Constraint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.constraints[pid], nil
}

func (m *mockConstraintSource) Get(ctx context.Context, constraintID string) (checker.Constraint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cons := range m.constraints {
		for _, c := range cons {
			if c.ID == constraintID {
				return c, nil
			}
		}
	}
	return checker.Constraint{}, domain.ConstraintNotFound(constraintID)
}

func (m *mockConstraintSource) Replace(ctx context.Context, pid wbconstraints.PropertyID, cons []checker.Constraint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints[pid] = cons
	return nil
}

func (m *mockConstraintSource) set(pid wbconstraints.PropertyID, cons ...checker.Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints[pid] = cons
}

type memStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	gets    int
	sets    int
	deletes int
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.values[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.values, key)
	return nil
}

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// spyChecker records calls and returns a fixed status or error.
type spyChecker struct {
	mu       sync.Mutex
	contexts map[checker.ContextType]checker.Status
	defaults []checker.ContextType
	status   checker.Status
	err      error
	calls    int
}

func newSpyChecker(status checker.Status) *spyChecker {
	return &spyChecker{
		contexts: map[checker.ContextType]checker.Status{
			checker.TypeStatement: checker.StatusCompliance,
			checker.TypeQualifier: checker.StatusNotInScope,
			checker.TypeReference: checker.StatusTodo,
		},
		defaults: checker.AllContextTypes,
		status:   status,
	}
}

func (s *spyChecker) SupportedContextTypes() map[checker.ContextType]checker.Status {
	return s.contexts
}

func (s *spyChecker) DefaultContextTypes() []checker.ContextType {
	return s.defaults
}

func (s *spyChecker) SupportedEntityTypes() map[wbconstraints.EntityType]checker.Status {
	return map[wbconstraints.EntityType]checker.Status{
		wbconstraints.EntityTypeItem:     checker.StatusCompliance,
		wbconstraints.EntityTypeProperty: checker.StatusNotInScope,
	}
}

func (s *spyChecker) Check(ctx context.Context, cx checker.Context, con checker.Constraint) (checker.CheckResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return checker.CheckResult{}, s.err
	}
	return checker.NewResult(cx, con, s.status, nil), nil
}

func (s *spyChecker) CheckConstraintParameters(con checker.Constraint) []*checker.ParameterError {
	return nil
}

const spyType wbconstraints.EntityID = "Q900"

func itemSnak(pid wbconstraints.PropertyID, id wbconstraints.EntityID) wbconstraints.Snak {
	return wbconstraints.NewValueSnak(pid, wbconstraints.NewEntityIDValue(id))
}

func statement(guid string, snak wbconstraints.Snak) wbconstraints.Statement {
	return wbconstraints.Statement{GUID: guid, Rank: wbconstraints.RankNormal, MainSnak: snak}
}

func item(id wbconstraints.EntityID, revision int64, statements ...wbconstraints.Statement) *wbconstraints.Entity {
	return &wbconstraints.Entity{ID: id, Revision: revision, Statements: statements}
}

func oneOf(id string, pid wbconstraints.PropertyID, allowed ...wbconstraints.EntityID) checker.Constraint {
	var snaks []wbconstraints.Snak
	for _, a := range allowed {
		snaks = append(snaks, itemSnak(schemas.ItemParameter, a))
	}
	return checker.Constraint{
		ID:         id,
		PropertyID: pid,
		TypeID:     schemas.OneOfConstraint,
		Parameters: checker.Parameters{
			schemas.ItemParameter:             snaks,
			schemas.ConstraintStatusParameter: {itemSnak(schemas.ConstraintStatusParameter, schemas.MandatoryStatus)},
		},
	}
}

func spyConstraint(id string, pid wbconstraints.PropertyID, params checker.Parameters) checker.Constraint {
	return checker.Constraint{ID: id, PropertyID: pid, TypeID: spyType, Parameters: params}
}

func statusesOf(results []checker.CheckResult) []checker.Status {
	var out []checker.Status
	for _, r := range results {
		if r.IsNull() {
			continue
		}
		out = append(out, r.Status)
	}
	return out
}

func valueType(id string, pid wbconstraints.PropertyID, relation wbconstraints.EntityID, classes ...wbconstraints.EntityID) checker.Constraint {
	var snaks []wbconstraints.Snak
	for _, c := range classes {
		snaks = append(snaks, itemSnak(schemas.ClassParameter, c))
	}
	return checker.Constraint{
		ID:         id,
		PropertyID: pid,
		TypeID:     schemas.ValueTypeConstraint,
		Parameters: checker.Parameters{
			schemas.ClassParameter:            snaks,
			schemas.RelationParameter:         {itemSnak(schemas.RelationParameter, relation)},
			schemas.ConstraintStatusParameter: {itemSnak(schemas.ConstraintStatusParameter, schemas.MandatoryStatus)},
		},
	}
}

// subclassChain is Q1 -P1-> Q5, where Q5 is a subclass of Q6.
func subclassChain() []*wbconstraints.Entity {
	return []*wbconstraints.Entity{
		item("Q1", 1, statement("Q1$a", itemSnak("P1", "Q5"))),
		item("Q5", 1, statement("Q5$a", itemSnak(schemas.SubclassOfProperty, "Q6"))),
		item("Q6", 1),
	}
}
