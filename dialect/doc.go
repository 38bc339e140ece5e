// Package dialect provides the database abstraction the SQL store runs on.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// Tx adds Commit and Rollback to the two operations. Both Driver and Tx
// satisfy ExecQuerier, so store code is written once against ExecQuerier
// and runs inside or outside a transaction.
//
// # Usage
//
//	drv, err := sql.Open(dialect.SQLite, "file:events.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: driver, statistics and debug drivers, predicate compiler
//   - dialect/sql/sqlgraph: classification of driver constraint errors
package dialect
