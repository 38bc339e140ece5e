package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/eventguard/dialect"
)

// Builder is a statement builder that quotes identifiers and numbers
// placeholders the way the dialect expects.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
}

// Dialect creates a new Builder for the given dialect.
func Dialect(name string) *Builder {
	return &Builder{dialect: name}
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// WriteString writes raw SQL text.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Ident writes a quoted identifier.
func (b *Builder) Ident(s string) *Builder {
	b.sb.WriteString(b.Quote(s))
	return b
}

// Quote quotes an identifier for the dialect.
func (b *Builder) Quote(ident string) string {
	if b.dialect == dialect.MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Arg writes a placeholder bound to v.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// Args writes comma-separated placeholders bound to vs.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Arg(v)
	}
	return b
}

// IdentComma writes comma-separated quoted identifiers.
func (b *Builder) IdentComma(idents ...string) *Builder {
	for i, s := range idents {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Ident(s)
	}
	return b
}

// Query returns the statement and its arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}

// MaxParams returns the number of bound parameters a single statement may
// carry on the dialect.
func MaxParams(name string) int {
	switch name {
	case dialect.SQLite:
		return 32766
	default:
		return 65535
	}
}
