package store

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Filterable booking fields.
const (
	FieldRoomID        = "roomId"
	FieldDate          = "date"
	FieldProfessorName = "professorName"
)

var columns = map[string]string{
	FieldRoomID:        "room_id",
	FieldDate:          "date",
	FieldProfessorName: "professor_name",
}

type op int

const (
	opEq op = iota
	opContainsFold
)

// Predicate is a single named condition on a booking field.
type Predicate struct {
	Field string
	Value string
	op    op
}

// Eq matches bookings whose field equals value.
func Eq(field, value string) Predicate {
	return Predicate{Field: field, Value: value, op: opEq}
}

// ContainsFold matches bookings whose field contains value, ignoring case.
func ContainsFold(field, value string) Predicate {
	return Predicate{Field: field, Value: value, op: opContainsFold}
}

// Query is a conjunction of predicates. Predicates with an empty value are
// dropped, so optional filters can be passed through unconditionally.
type Query struct {
	preds []Predicate
}

// Where starts a query from preds.
func Where(preds ...Predicate) Query {
	return Query{}.And(preds...)
}

// And returns a new query that also requires preds.
func (q Query) And(preds ...Predicate) Query {
	out := make([]Predicate, len(q.preds), len(q.preds)+len(preds))
	copy(out, q.preds)
	for _, p := range preds {
		if p.Value == "" {
			continue
		}
		out = append(out, p)
	}
	return Query{preds: out}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// apply translates q into WHERE clauses on tx.
func (q Query) apply(tx *gorm.DB) (*gorm.DB, error) {
	for _, p := range q.preds {
		col, ok := columns[p.Field]
		if !ok {
			return nil, fmt.Errorf("unknown query field %q", p.Field)
		}
		switch p.op {
		case opEq:
			tx = tx.Where(col+" = ?", p.Value)
		case opContainsFold:
			pattern := "%" + likeEscaper.Replace(strings.ToLower(p.Value)) + "%"
			tx = tx.Where("LOWER("+col+`) LIKE ? ESCAPE '\'`, pattern)
		}
	}
	return tx, nil
}
