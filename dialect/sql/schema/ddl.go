package schema

import (
	"fmt"
	"strconv"

	"github.com/syssam/eventguard/dialect"
	"github.com/syssam/eventguard/dialect/sql"
)

// CreateStatements returns the statements creating t and its indexes on
// the dialect. They are no-ops when the objects already exist.
func CreateStatements(name string, t *Table) []string {
	b := sql.Dialect(name)
	b.WriteString("CREATE TABLE IF NOT EXISTS ").Ident(t.Name).WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c.Name).WriteString(" " + columnType(name, c))
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		if c.Unique {
			b.WriteString(" UNIQUE")
		}
		if c.Default != nil {
			b.WriteString(" DEFAULT " + literal(c.Default))
		}
	}
	if len(t.PrimaryKey) > 0 {
		b.WriteString(", PRIMARY KEY (").IdentComma(names(t.PrimaryKey)...).WriteString(")")
	}
	for _, fk := range t.ForeignKeys {
		b.WriteString(", ")
		if fk.Symbol != "" {
			b.WriteString("CONSTRAINT ").Ident(fk.Symbol).WriteString(" ")
		}
		b.WriteString("FOREIGN KEY (").IdentComma(names(fk.Columns)...).
			WriteString(") REFERENCES ").Ident(fk.RefTable.Name).
			WriteString(" (").IdentComma(names(fk.RefColumns)...).WriteString(")")
		if fk.OnDelete != "" {
			b.WriteString(" ON DELETE " + string(fk.OnDelete))
		}
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS; indexes go inline.
	if name == dialect.MySQL {
		for _, idx := range t.Indexes {
			b.WriteString(", ")
			if idx.Unique {
				b.WriteString("UNIQUE ")
			}
			b.WriteString("INDEX ").Ident(idx.Name).WriteString(" (").IdentComma(names(idx.Columns)...).WriteString(")")
		}
	}
	b.WriteString(")")
	stmt, _ := b.Query()
	stmts := []string{stmt}
	if name == dialect.MySQL {
		return stmts
	}
	for _, idx := range t.Indexes {
		b := sql.Dialect(name)
		b.WriteString("CREATE ")
		if idx.Unique {
			b.WriteString("UNIQUE ")
		}
		b.WriteString("INDEX IF NOT EXISTS ").Ident(idx.Name).WriteString(" ON ").Ident(t.Name).
			WriteString(" (").IdentComma(names(idx.Columns)...).WriteString(")")
		stmt, _ := b.Query()
		stmts = append(stmts, stmt)
	}
	return stmts
}

func columnType(name string, c *Column) string {
	switch c.Type {
	case TypeString:
		size := c.Size
		if size == 0 {
			size = 255
		}
		if name == dialect.SQLite {
			return "text"
		}
		return "varchar(" + strconv.Itoa(size) + ")"
	case TypeText:
		if name == dialect.MySQL {
			return "longtext"
		}
		return "text"
	case TypeBlob:
		switch name {
		case dialect.MySQL:
			return "longblob"
		case dialect.Postgres:
			return "bytea"
		}
		return "blob"
	case TypeInt:
		if name == dialect.SQLite {
			return "integer"
		}
		return "bigint"
	}
	return "text"
}

func literal(v any) string {
	switch v := v.(type) {
	case string:
		return "'" + v + "'"
	case bool:
		if v {
			return "1"
		}
		return "0"
	}
	return fmt.Sprint(v)
}

func names(cs []*Column) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}
