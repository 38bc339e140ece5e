// Package querylanguage provides boolean predicate trees over record
// fields. Stores compile or evaluate them; the privacy layer composes
// them to restrict what an acting user can find.
//
// Field names may be dotted paths through a reference field into the
// related record, e.g. "calendar.owner".
package querylanguage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Op represents a predicate operator.
type Op int

// Operators.
const (
	OpAnd Op = iota
	OpOr
	OpNot
	OpEQ
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpIn
	OpNotIn
)

var ops = [...]string{
	OpAnd:   "&&",
	OpOr:    "||",
	OpNot:   "!",
	OpEQ:    "==",
	OpNEQ:   "!=",
	OpGT:    ">",
	OpGTE:   ">=",
	OpLT:    "<",
	OpLTE:   "<=",
	OpIn:    "in",
	OpNotIn: "not in",
}

// String returns the textual form of the operator.
func (o Op) String() string {
	if int(o) < len(ops) {
		return ops[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

type (
	// Expr is a node in a predicate tree.
	Expr interface {
		expr()
		String() string
	}

	// P is a predicate: an expression that evaluates to a boolean.
	P interface {
		Expr
		Negate() P
	}

	// Field references a record field by name or dotted path.
	Field struct {
		Name string
	}

	// Value is a literal. Lists are []any.
	Value struct {
		V any
	}

	// BinaryExpr is a comparison, or a conjunction/disjunction of two predicates.
	BinaryExpr struct {
		Op   Op
		X, Y Expr
	}

	// UnaryExpr is a negation.
	UnaryExpr struct {
		Op Op
		X  Expr
	}

	// NaryExpr is a conjunction/disjunction of more than two predicates.
	NaryExpr struct {
		Op Op
		Xs []Expr
	}
)

func (*Field) expr()      {}
func (*Value) expr()      {}
func (*BinaryExpr) expr() {}
func (*UnaryExpr) expr()  {}
func (*NaryExpr) expr()   {}

// F returns a field reference.
func F(name string) *Field { return &Field{Name: name} }

// V returns a literal value.
func V(v any) *Value { return &Value{V: v} }

// String returns the field name.
func (f *Field) String() string { return f.Name }

// String returns the JSON encoding of the value.
func (v *Value) String() string {
	if v.V == nil {
		return "nil"
	}
	b, err := json.Marshal(v.V)
	if err != nil {
		return fmt.Sprint(v.V)
	}
	return string(b)
}

// String formats the expression. Logical operands are parenthesized.
func (e *BinaryExpr) String() string {
	return operand(e.X) + " " + e.Op.String() + " " + operand(e.Y)
}

func operand(x Expr) string {
	if b, ok := x.(*BinaryExpr); ok && (b.Op == OpAnd || b.Op == OpOr) {
		return "(" + b.String() + ")"
	}
	return x.String()
}

// Negate returns the negation of the expression.
func (e *BinaryExpr) Negate() P { return Not(e) }

// String formats the expression.
func (e *UnaryExpr) String() string {
	return e.Op.String() + "(" + e.X.String() + ")"
}

// Negate returns the negation of the expression.
func (e *UnaryExpr) Negate() P { return Not(e) }

// String formats the expression.
func (e *NaryExpr) String() string {
	parts := make([]string, len(e.Xs))
	for i, x := range e.Xs {
		parts[i] = operand(x)
	}
	return "(" + strings.Join(parts, " "+e.Op.String()+" ") + ")"
}

// Negate returns the negation of the expression.
func (e *NaryExpr) Negate() P { return Not(e) }

// And returns the conjunction of the given predicates. Nil predicates are
// dropped; And of nothing is nil, meaning "match everything".
func And(ps ...P) P { return join(OpAnd, ps) }

// Or returns the disjunction of the given predicates. Nil predicates are
// dropped.
func Or(ps ...P) P { return join(OpOr, ps) }

func join(op Op, ps []P) P {
	xs := make([]Expr, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			xs = append(xs, p)
		}
	}
	switch len(xs) {
	case 0:
		return nil
	case 1:
		return xs[0].(P)
	case 2:
		return &BinaryExpr{Op: op, X: xs[0], Y: xs[1]}
	default:
		return &NaryExpr{Op: op, Xs: xs}
	}
}

// Not returns the negation of p.
func Not(p P) P { return &UnaryExpr{Op: OpNot, X: p} }

// EQ returns a predicate comparing x and y for equality.
func EQ(x, y Expr) P { return &BinaryExpr{Op: OpEQ, X: x, Y: y} }

// NEQ returns a predicate comparing x and y for inequality.
func NEQ(x, y Expr) P { return &BinaryExpr{Op: OpNEQ, X: x, Y: y} }

// GT returns x > y.
func GT(x, y Expr) P { return &BinaryExpr{Op: OpGT, X: x, Y: y} }

// GTE returns x >= y.
func GTE(x, y Expr) P { return &BinaryExpr{Op: OpGTE, X: x, Y: y} }

// LT returns x < y.
func LT(x, y Expr) P { return &BinaryExpr{Op: OpLT, X: x, Y: y} }

// LTE returns x <= y.
func LTE(x, y Expr) P { return &BinaryExpr{Op: OpLTE, X: x, Y: y} }

// FieldEQ returns name == v.
func FieldEQ(name string, v any) P { return EQ(F(name), V(v)) }

// FieldNEQ returns name != v.
func FieldNEQ(name string, v any) P { return NEQ(F(name), V(v)) }

// FieldGT returns name > v.
func FieldGT(name string, v any) P { return GT(F(name), V(v)) }

// FieldGTE returns name >= v.
func FieldGTE(name string, v any) P { return GTE(F(name), V(v)) }

// FieldLT returns name < v.
func FieldLT(name string, v any) P { return LT(F(name), V(v)) }

// FieldLTE returns name <= v.
func FieldLTE(name string, v any) P { return LTE(F(name), V(v)) }

// FieldIn returns name in [vs...].
func FieldIn[T any](name string, vs ...T) P {
	return &BinaryExpr{Op: OpIn, X: F(name), Y: V(list(vs))}
}

// FieldNotIn returns name not in [vs...].
func FieldNotIn[T any](name string, vs ...T) P {
	return &BinaryExpr{Op: OpNotIn, X: F(name), Y: V(list(vs))}
}

// FieldNil returns name == nil.
func FieldNil(name string) P { return EQ(F(name), V(nil)) }

// FieldNotNil returns name != nil.
func FieldNotNil(name string) P { return NEQ(F(name), V(nil)) }

func list[T any](vs []T) []any {
	l := make([]any, len(vs))
	for i := range vs {
		l[i] = vs[i]
	}
	return l
}

// Walk calls fn for every node of the tree in depth-first order. It stops
// descending when fn returns false.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch x := e.(type) {
	case *BinaryExpr:
		Walk(x.X, fn)
		Walk(x.Y, fn)
	case *UnaryExpr:
		Walk(x.X, fn)
	case *NaryExpr:
		for _, y := range x.Xs {
			Walk(y, fn)
		}
	}
}

// Fields returns the distinct field names referenced by p.
func Fields(p P) []string {
	var (
		names []string
		seen  = make(map[string]bool)
	)
	Walk(p, func(e Expr) bool {
		if f, ok := e.(*Field); ok && !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
		return true
	})
	return names
}
