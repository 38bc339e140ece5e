// Package sql is the database/sql implementation of the dialect interfaces.
//
// It provides the Driver used by store/sqlstore together with a minimal
// statement Builder and a compiler from querylanguage predicates into SQL
// fragments.
//
// # Dialect Support
//
// Identifier quoting and placeholders follow the dialect:
//
//	b := sql.Dialect(dialect.Postgres)
//	b.WriteString("SELECT ").Ident("id").WriteString(" FROM ").Ident("calendar_event").
//		WriteString(" WHERE ").Ident("summary").WriteString(" = ").Arg("standup")
//	query, args := b.Query() // SELECT "id" FROM "calendar_event" WHERE "summary" = $1
//
// MySQL quotes with backticks; MySQL and SQLite use "?" placeholders.
//
// # Predicates
//
// Compile translates a predicate tree against a Schema that maps fields to
// columns and dotted paths to related tables:
//
//	where, args, err := sql.Compile(dialect.SQLite, schema,
//		ql.FieldEQ("calendar.owner", "alice"))
//	// "calendar_id" IN (SELECT "id" FROM "calendar_calendar" WHERE "owner" = ?)
//
// Negated comparisons are compiled as the complement of their positive form
// so that NULL columns satisfy "!=".
//
// # Drivers
//
// StatsDriver counts statements and logs slow ones. DebugDriver logs every
// statement at debug level. Both wrap any dialect.Driver.
package sql
