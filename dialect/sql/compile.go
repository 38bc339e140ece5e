package sql

import (
	"fmt"

	ql "github.com/syssam/eventguard/querylanguage"
)

// Schema maps predicate fields onto a table.
type Schema struct {
	// Table is the table the predicate filters.
	Table string
	// Columns maps a field name to its column.
	Columns map[string]string
	// Nullable lists the columns that may hold NULL.
	Nullable map[string]bool
	// Paths maps dotted field paths to related tables.
	Paths map[string]Path
}

// Path describes a field reached through a related table. A predicate on
// the path compiles to
//
//	<Column> IN (SELECT <Key> FROM <Table> WHERE <Value> <op> ?)
//
// Set paths hold several values per row; they match when any value does.
type Path struct {
	Column string
	Table  string
	Key    string
	Value  string
	Set    bool
}

// Compile translates p into a boolean SQL fragment and its arguments. A
// nil predicate compiles to the always-true fragment.
func Compile(dialect string, s *Schema, p ql.P) (string, []any, error) {
	b := Dialect(dialect)
	if err := CompileTo(b, s, p); err != nil {
		return "", nil, err
	}
	q, args := b.Query()
	return q, args, nil
}

// CompileTo writes the fragment of p to b, continuing its placeholder
// numbering.
func CompileTo(b *Builder, s *Schema, p ql.P) error {
	if p == nil {
		b.WriteString("1 = 1")
		return nil
	}
	return compile(b, s, p)
}

func compile(b *Builder, s *Schema, e ql.Expr) error {
	switch x := e.(type) {
	case *ql.UnaryExpr:
		b.WriteString("NOT (")
		if err := compile(b, s, x.X); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	case *ql.NaryExpr:
		return join(b, s, x.Op, x.Xs)
	case *ql.BinaryExpr:
		if x.Op == ql.OpAnd || x.Op == ql.OpOr {
			return join(b, s, x.Op, []ql.Expr{x.X, x.Y})
		}
		return compare(b, s, x)
	}
	return fmt.Errorf("dialect/sql: unexpected expression %T", e)
}

func join(b *Builder, s *Schema, op ql.Op, xs []ql.Expr) error {
	sep := " AND "
	if op == ql.OpOr {
		sep = " OR "
	}
	b.WriteString("(")
	for i, x := range xs {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := compile(b, s, x); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

var operators = map[ql.Op]string{
	ql.OpEQ:  "=",
	ql.OpGT:  ">",
	ql.OpGTE: ">=",
	ql.OpLT:  "<",
	ql.OpLTE: "<=",
}

// compare compiles a field/literal comparison. The negated operators are
// compiled as the complement of their positive form, so that NULL columns
// and empty sets satisfy them.
func compare(b *Builder, s *Schema, x *ql.BinaryExpr) error {
	f, ok := x.X.(*ql.Field)
	if !ok {
		return fmt.Errorf("dialect/sql: left operand of %s must be a field", x.Op)
	}
	lit, ok := x.Y.(*ql.Value)
	if !ok {
		return fmt.Errorf("dialect/sql: right operand of %s must be a value", x.Op)
	}
	switch x.Op {
	case ql.OpNEQ:
		return not(b, s, &ql.BinaryExpr{Op: ql.OpEQ, X: f, Y: lit})
	case ql.OpNotIn:
		return not(b, s, &ql.BinaryExpr{Op: ql.OpIn, X: f, Y: lit})
	}
	if x.Op == ql.OpIn {
		list, ok := lit.V.([]any)
		if !ok {
			return fmt.Errorf("dialect/sql: %s expects a list, got %T", x.Op, lit.V)
		}
		if len(list) == 0 {
			b.WriteString("1 = 0")
			return nil
		}
	}
	if path, ok := s.Paths[f.Name]; ok {
		return comparePath(b, path, x.Op, lit.V)
	}
	col, ok := s.Columns[f.Name]
	if !ok {
		return fmt.Errorf("dialect/sql: field %q is not searchable", f.Name)
	}
	if s.Nullable[col] && lit.V != nil {
		// Comparisons with NULL are unknown; NOT would keep them out.
		b.WriteString("(").Ident(col).WriteString(" IS NOT NULL AND ")
		condition(b, col, x.Op, lit.V)
		b.WriteString(")")
		return nil
	}
	condition(b, col, x.Op, lit.V)
	return nil
}

func not(b *Builder, s *Schema, x *ql.BinaryExpr) error {
	b.WriteString("NOT (")
	if err := compare(b, s, x); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func comparePath(b *Builder, p Path, op ql.Op, v any) error {
	if v == nil && op != ql.OpEQ {
		return fmt.Errorf("dialect/sql: cannot compare %s.%s with nil using %s", p.Table, p.Value, op)
	}
	if v == nil && p.Set {
		// No related rows at all.
		b.WriteString("NOT (").Ident(p.Column).WriteString(" IN (SELECT ").Ident(p.Key).
			WriteString(" FROM ").Ident(p.Table).WriteString("))")
		return nil
	}
	b.Ident(p.Column).WriteString(" IN (SELECT ").Ident(p.Key).
		WriteString(" FROM ").Ident(p.Table).WriteString(" WHERE ")
	condition(b, p.Value, op, v)
	b.WriteString(")")
	return nil
}

func condition(b *Builder, col string, op ql.Op, v any) {
	b.Ident(col)
	switch {
	case v == nil:
		b.WriteString(" IS NULL")
	case op == ql.OpIn:
		list := v.([]any)
		args := make([]any, len(list))
		for i := range list {
			args[i] = arg(list[i])
		}
		b.WriteString(" IN (").Args(args...).WriteString(")")
	default:
		b.WriteString(" " + operators[op] + " ").Arg(arg(v))
	}
}

// arg normalizes a literal. Searchable columns hold text.
func arg(v any) any {
	switch v := v.(type) {
	case nil, string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}
