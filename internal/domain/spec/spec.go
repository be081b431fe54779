// Package spec models business specifications as small predicate trees over
// named field comparisons. The same tree is evaluated two ways: in memory
// against a live aggregate (Eval) and lowered to the store's native query
// language by the persistence layer. Field names therefore use the persisted
// document field names, keeping both interpreters in agreement.
package spec

// Op enumerates the supported comparison operators.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

// Node is a node of the predicate tree.
type Node interface {
	node()
}

// Compare tests a single named field against a value. For OpIn the value is
// a slice of candidates.
type Compare struct {
	Field string
	Op    Op
	Value any
}

// And is satisfied when every child is satisfied. An empty And is satisfied.
type And struct {
	Children []Node
}

// Or is satisfied when at least one child is satisfied.
type Or struct {
	Children []Node
}

// Not inverts its child.
type Not struct {
	Child Node
}

func (Compare) node() {}
func (And) node()     {}
func (Or) node()      {}
func (Not) node()     {}

// Eq builds an equality comparison.
func Eq(field string, value any) Node { return Compare{Field: field, Op: OpEq, Value: value} }

// Ne builds an inequality comparison.
func Ne(field string, value any) Node { return Compare{Field: field, Op: OpNe, Value: value} }

// Gt builds a greater-than comparison.
func Gt(field string, value any) Node { return Compare{Field: field, Op: OpGt, Value: value} }

// Gte builds a greater-or-equal comparison.
func Gte(field string, value any) Node { return Compare{Field: field, Op: OpGte, Value: value} }

// Lt builds a less-than comparison.
func Lt(field string, value any) Node { return Compare{Field: field, Op: OpLt, Value: value} }

// Lte builds a less-or-equal comparison.
func Lte(field string, value any) Node { return Compare{Field: field, Op: OpLte, Value: value} }

// In builds a membership comparison over the candidate values.
func In(field string, values ...any) Node {
	return Compare{Field: field, Op: OpIn, Value: values}
}

// All combines children conjunctively.
func All(children ...Node) Node { return And{Children: children} }

// Any combines children disjunctively.
func Any(children ...Node) Node { return Or{Children: children} }

// Negate inverts a predicate.
func Negate(child Node) Node { return Not{Child: child} }
