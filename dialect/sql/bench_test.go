package sql

import (
	"testing"

	"github.com/syssam/eventguard/dialect"
	ql "github.com/syssam/eventguard/querylanguage"
)

func BenchmarkCompile_Visibility(b *testing.B) {
	owner := ql.Or(ql.FieldEQ("calendar.owner", "alice"), ql.FieldEQ("calendar.write_users", "alice"))
	p := ql.And(
		ql.FieldEQ("summary", "standup"),
		ql.Or(ql.And(ql.FieldEQ("classification", "confidential"), owner), ql.FieldNEQ("classification", "confidential")),
	)
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _, _ = Compile(d, testSchema, p)
			}
		})
	}
}

func BenchmarkCompile_In(b *testing.B) {
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = "id"
	}
	p := ql.FieldIn("id", ids...)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, _ = Compile(dialect.Postgres, testSchema, p)
	}
}
