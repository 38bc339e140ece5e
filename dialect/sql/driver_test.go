package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/eventguard/dialect"
)

func TestDriverDialect(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "postgres", want: dialect.Postgres},
		{name: "sqlite", want: dialect.SQLite},
		{name: "sqlite3", want: dialect.SQLite},
		{name: "mysql", want: dialect.MySQL},
		{name: "postgres-otel", want: dialect.Postgres},
		{name: "oracle", want: "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := NewDriver(tt.name, Conn{})
			assert.Equal(t, tt.want, drv.Dialect())
		})
	}
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db)

	mock.ExpectQuery(`SELECT "id" FROM "calendar_event" WHERE "summary" = \?`).
		WithArgs("standup").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1").AddRow("2"))
	rows := &Rows{}
	err = drv.Query(context.Background(), `SELECT "id" FROM "calendar_event" WHERE "summary" = ?`, []any{"standup"}, rows)
	require.NoError(t, err)
	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"1", "2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectExec(`DELETE FROM "calendar_event"`).WillReturnResult(sqlmock.NewResult(0, 3))
	var res sql.Result
	require.NoError(t, drv.Exec(context.Background(), `DELETE FROM "calendar_event"`, []any{}, &res))
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	mock.ExpectExec(`DELETE FROM "calendar_event"`).WillReturnError(errors.New("locked"))
	err = drv.Exec(context.Background(), `DELETE FROM "calendar_event"`, []any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialect/sql: exec: locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverInvalidArgs(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db)
	ctx := context.Background()

	err = drv.Exec(ctx, "SELECT 1", "not a slice", nil)
	assert.ErrorContains(t, err, "expect []any for args")
	err = drv.Exec(ctx, "SELECT 1", []any{}, new(int))
	assert.ErrorContains(t, err, "expect *sql.Result")
	err = drv.Query(ctx, "SELECT 1", []any{}, new(sql.Rows))
	assert.ErrorContains(t, err, "expect *sql.Rows")
	err = drv.Query(ctx, "SELECT 1", nil, &Rows{})
	assert.ErrorContains(t, err, "expect []any for args")
}

func TestDriverTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "calendar_calendar"`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `INSERT INTO "calendar_calendar" ("id") VALUES (?)`, []any{"c1"}, nil))
	require.NoError(t, tx.Commit())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "calendar_event"`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()
	tx, err = drv.Tx(ctx)
	require.NoError(t, err)
	require.Error(t, tx.Exec(ctx, `UPDATE "calendar_event" SET "summary" = ?`, []any{"x"}, nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectBegin().WillReturnError(errors.New("no connections"))
	_, err = drv.Tx(ctx)
	require.Error(t, err)
}

func TestDriverClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	require.NoError(t, OpenDB(dialect.MySQL, db).Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
