package rest

import (
	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/utils"
)

type messageView struct {
	*checker.ViolationMessage
	Text string `json:"text"`
}

type constraintView struct {
	ID       string                   `json:"id"`
	Type     wbconstraints.EntityID   `json:"type"`
	Property wbconstraints.PropertyID `json:"property"`
}

type resultView struct {
	Status     checker.Status  `json:"status"`
	Property   string          `json:"property"`
	Constraint *constraintView `json:"constraint,omitempty"`
	Message    *messageView    `json:"message,omitempty"`
}

type snakView struct {
	Hash    string        `json:"hash,omitempty"`
	Results []*resultView `json:"results"`
}

type referenceView struct {
	Hash  string                          `json:"hash"`
	Snaks utils.OrderedKVMap[[]*snakView] `json:"snaks"`
}

type statementView struct {
	ID         string                          `json:"id"`
	MainSnak   *snakView                       `json:"mainsnak"`
	Qualifiers utils.OrderedKVMap[[]*snakView] `json:"qualifiers,omitempty"`
	References []*referenceView                `json:"references,omitempty"`
}

type entityView struct {
	Claims utils.OrderedKVMap[[]*statementView] `json:"claims"`
}

type cachedView struct {
	MaxAge int64 `json:"maxage"`
}

type checkResponse struct {
	Results utils.OrderedKVMap[*entityView] `json:"wbcheckconstraints"`
	Cached  *cachedView                     `json:"cached,omitempty"`
}

// renderResults nests results by entity, statement and snak, in the order
// they were produced. Placeholder results only make their entity and
// statement appear.
func renderResults(results []checker.CheckResult) utils.OrderedKVMap[*entityView] {
	out := utils.OrderedKVMap[*entityView]{}
	for _, r := range results {
		cur := r.Cursor
		entity := out.GetOrAdd(cur.EntityID.String(), func() *entityView {
			return &entityView{Claims: utils.OrderedKVMap[[]*statementView]{}}
		})
		if cur.Type == checker.TypeEntity || cur.StatementGUID == "" {
			continue
		}

		statement := findStatement(entity, cur)
		var snak *snakView
		switch cur.Type {
		case checker.TypeStatement:
			snak = statement.MainSnak
		case checker.TypeQualifier:
			if statement.Qualifiers == nil {
				statement.Qualifiers = utils.OrderedKVMap[[]*snakView]{}
			}
			snak = findSnak(statement.Qualifiers, cur)
		case checker.TypeReference:
			snak = findSnak(findReference(statement, cur.ReferenceHash).Snaks, cur)
		default:
			continue
		}

		if r.IsNull() {
			continue
		}
		snak.Results = append(snak.Results, toResultView(r))
	}
	return out
}

func findStatement(entity *entityView, cur checker.ContextCursor) *statementView {
	pid := cur.StatementPropID.String()
	statements := entity.Claims.GetOrAdd(pid, func() []*statementView { return nil })
	for _, s := range statements {
		if s.ID == cur.StatementGUID {
			return s
		}
	}
	s := &statementView{ID: cur.StatementGUID, MainSnak: &snakView{Results: []*resultView{}}}
	kv := entity.Claims[pid]
	kv.Value = append(kv.Value, s)
	entity.Claims[pid] = kv
	return s
}

func findSnak(snaks utils.OrderedKVMap[[]*snakView], cur checker.ContextCursor) *snakView {
	pid := cur.SnakPropID.String()
	list := snaks.GetOrAdd(pid, func() []*snakView { return nil })
	for _, s := range list {
		if s.Hash == cur.SnakHash {
			return s
		}
	}
	s := &snakView{Hash: cur.SnakHash, Results: []*resultView{}}
	kv := snaks[pid]
	kv.Value = append(kv.Value, s)
	snaks[pid] = kv
	return s
}

func findReference(statement *statementView, hash string) *referenceView {
	for _, ref := range statement.References {
		if ref.Hash == hash {
			return ref
		}
	}
	ref := &referenceView{Hash: hash, Snaks: utils.OrderedKVMap[[]*snakView]{}}
	statement.References = append(statement.References, ref)
	return ref
}

func toResultView(r checker.CheckResult) *resultView {
	view := &resultView{
		Status:   r.Status,
		Property: r.Cursor.SnakPropID.String(),
	}
	if r.Constraint != nil {
		view.Constraint = &constraintView{
			ID:       r.Constraint.ID,
			Type:     r.Constraint.TypeID,
			Property: r.Constraint.PropertyID,
		}
	}
	if r.Message != nil {
		view.Message = &messageView{ViolationMessage: r.Message, Text: r.Message.Render()}
	}
	return view
}

type parameterReport struct {
	Status   string         `json:"status"`
	Problems []*messageView `json:"problems,omitempty"`
}

func toParameterReport(perrs []*checker.ParameterError) *parameterReport {
	if len(perrs) == 0 {
		return &parameterReport{Status: "okay"}
	}
	report := &parameterReport{Status: "not-okay"}
	for _, perr := range perrs {
		report.Problems = append(report.Problems, &messageView{
			ViolationMessage: perr.Message,
			Text:             perr.Message.Render(),
		})
	}
	return report
}
