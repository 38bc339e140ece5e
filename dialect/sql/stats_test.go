package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/eventguard/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db), WithSlowThreshold(-1), WithStatsLogger(logger))
	ctx := context.Background()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(ctx, "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())

	mock.ExpectExec("DELETE").WillReturnError(errors.New("locked"))
	require.Error(t, drv.Exec(ctx, "DELETE FROM t", []any{}, nil))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "UPDATE t SET a = 1", []any{}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Stats()
	assert.EqualValues(t, 1, s.TotalQueries)
	assert.EqualValues(t, 2, s.TotalExecs)
	assert.EqualValues(t, 1, s.Errors)
	assert.EqualValues(t, 3, s.SlowQueries)
	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "DELETE FROM t")
}

func TestStatsDriverThreshold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	var buf bytes.Buffer
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db), WithStatsLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM t", []any{}, nil))
	assert.Zero(t, drv.QueryStats().Stats().SlowQueries)
	assert.Empty(t, buf.String())
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.Postgres, db), logger)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE").WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `DELETE FROM "calendar_event" WHERE "id" = $1`, []any{"e1"}, nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, "begin transaction")
	assert.Contains(t, out, "tx exec")
	assert.Contains(t, out, "rollback transaction")
	assert.Contains(t, out, "[e1]")
}
