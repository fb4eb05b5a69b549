package checker

import "github.com/totegamma/wbconstraints"

type ContextType string

const (
	TypeStatement ContextType = "statement"
	TypeQualifier ContextType = "qualifier"
	TypeReference ContextType = "reference"

	// TypeEntity only appears on cursors of entity-level placeholder results.
	TypeEntity ContextType = "entity"
)

var AllContextTypes = []ContextType{TypeStatement, TypeQualifier, TypeReference}

// Context is the location a constraint is evaluated at.
type Context struct {
	Type          ContextType
	Entity        *wbconstraints.Entity
	Statement     wbconstraints.Statement
	Snak          wbconstraints.Snak
	ReferenceHash string
}

func NewMainSnakContext(entity *wbconstraints.Entity, statement wbconstraints.Statement) Context {
	return Context{Type: TypeStatement, Entity: entity, Statement: statement, Snak: statement.MainSnak}
}

func NewQualifierContext(entity *wbconstraints.Entity, statement wbconstraints.Statement, snak wbconstraints.Snak) Context {
	return Context{Type: TypeQualifier, Entity: entity, Statement: statement, Snak: snak}
}

func NewReferenceContext(entity *wbconstraints.Entity, statement wbconstraints.Statement, ref wbconstraints.Reference, snak wbconstraints.Snak) Context {
	hash := ref.Hash
	if hash == "" {
		hash = referenceHash(ref)
	}
	return Context{Type: TypeReference, Entity: entity, Statement: statement, Snak: snak, ReferenceHash: hash}
}

func (c Context) EntityID() wbconstraints.EntityID {
	if c.Entity == nil {
		return ""
	}
	return c.Entity.ID
}

// SnakStatement is the statement the checked snak belongs to, or nil for
// contexts not tied to a statement.
func (c Context) SnakStatement() *wbconstraints.Statement {
	if c.Statement.GUID == "" && c.Type != TypeStatement {
		return nil
	}
	return &c.Statement
}

func (c Context) Cursor() ContextCursor {
	cur := ContextCursor{
		Type:            c.Type,
		EntityID:        c.EntityID(),
		StatementGUID:   c.Statement.GUID,
		StatementPropID: c.Statement.PropertyID(),
		SnakPropID:      c.Snak.Property,
		ReferenceHash:   c.ReferenceHash,
	}
	if c.Type != TypeStatement {
		cur.SnakHash = c.Snak.Hash()
	}
	return cur
}

// ContextCursor is the serializable address of a Context.
type ContextCursor struct {
	Type            ContextType              `json:"t"`
	EntityID        wbconstraints.EntityID   `json:"e"`
	StatementGUID   string                   `json:"g,omitempty"`
	StatementPropID wbconstraints.PropertyID `json:"p,omitempty"`
	SnakPropID      wbconstraints.PropertyID `json:"sp,omitempty"`
	SnakHash        string                   `json:"h,omitempty"`
	ReferenceHash   string                   `json:"rh,omitempty"`
}

func EntityCursor(id wbconstraints.EntityID) ContextCursor {
	return ContextCursor{Type: TypeEntity, EntityID: id}
}

func referenceHash(ref wbconstraints.Reference) string {
	var b []byte
	for _, s := range ref.Snaks {
		b = append(b, s.Hash()...)
	}
	return wbconstraints.HashBytes(b)
}
