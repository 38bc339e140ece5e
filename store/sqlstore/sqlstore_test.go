package sqlstore_test

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/eventguard"
	"github.com/syssam/eventguard/dialect"
	"github.com/syssam/eventguard/dialect/sql"
	"github.com/syssam/eventguard/event"
	ql "github.com/syssam/eventguard/querylanguage"
	"github.com/syssam/eventguard/store"
	"github.com/syssam/eventguard/store/sqlstore"
)

func seq() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func open(t *testing.T, opts ...sqlstore.Option) *sqlstore.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := stdsql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	s := sqlstore.New(sql.OpenDB(dialect.SQLite, db), append([]sqlstore.Option{sqlstore.WithIDGenerator(seq())}, opts...)...)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seed(t *testing.T, opts ...sqlstore.Option) (*sqlstore.Store, map[string]string) {
	t.Helper()
	ctx := context.Background()
	s := open(t, opts...)
	_, err := s.CreateCalendar(ctx, &event.Calendar{ID: "cal-a", Name: "Alice", Owner: "alice", WriteUsers: []string{"bob"}})
	require.NoError(t, err)
	_, err = s.CreateCalendar(ctx, &event.Calendar{ID: "cal-c", Name: "Carol", Owner: "carol"})
	require.NoError(t, err)

	ids := make(map[string]string)
	for _, r := range []struct {
		name   string
		values event.Values
	}{
		{"public", event.Values{event.FieldCalendar: "cal-a", event.FieldSummary: "Standup", event.FieldCategories: []string{"work", "daily"}}},
		{"private", event.Values{event.FieldCalendar: "cal-a", event.FieldSummary: "Dentist", event.FieldClassification: event.Private}},
		{"confidential", event.Values{event.FieldCalendar: "cal-c", event.FieldSummary: "Offsite", event.FieldClassification: event.Confidential, event.FieldLocation: "Lake"}},
	} {
		id, err := s.Create(ctx, r.values)
		require.NoError(t, err)
		ids[r.name] = id
	}
	return s, ids
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s, ids := seed(t)

	tests := []struct {
		name string
		p    ql.P
		want []string
	}{
		{name: "all", p: nil, want: []string{ids["public"], ids["private"], ids["confidential"]}},
		{name: "eq", p: ql.FieldEQ("summary", "Dentist"), want: []string{ids["private"]}},
		{name: "neq", p: ql.FieldNEQ("classification", "confidential"), want: []string{ids["public"], ids["private"]}},
		{name: "owner", p: ql.FieldEQ(event.PathCalendarOwner, "carol"), want: []string{ids["confidential"]}},
		{name: "calendar name", p: ql.FieldEQ(event.PathCalendarName, "Alice"), want: []string{ids["public"], ids["private"]}},
		{name: "write users", p: ql.FieldEQ(event.PathCalendarWriteUsers, "bob"), want: []string{ids["public"], ids["private"]}},
		{name: "write users neq", p: ql.FieldNEQ(event.PathCalendarWriteUsers, "bob"), want: []string{ids["confidential"]}},
		{name: "no write users", p: ql.FieldNil(event.PathCalendarWriteUsers), want: []string{ids["confidential"]}},
		{name: "location nil", p: ql.FieldNil("location"), want: []string{ids["public"], ids["private"]}},
		{name: "location neq", p: ql.FieldNEQ("location", "Lake"), want: []string{ids["public"], ids["private"]}},
		{name: "in", p: ql.FieldIn("id", ids["confidential"], "missing"), want: []string{ids["confidential"]}},
		{name: "not in", p: ql.FieldNotIn("id", ids["confidential"]), want: []string{ids["public"], ids["private"]}},
		{name: "empty in", p: ql.FieldIn[string]("id"), want: nil},
		{name: "not", p: ql.Not(ql.FieldEQ("classification", "public")), want: []string{ids["private"], ids["confidential"]}},
		{name: "gt", p: ql.FieldGT("summary", "E"), want: []string{ids["public"], ids["confidential"]}},
		{
			name: "nary",
			p: ql.Or(
				ql.FieldEQ("summary", "Standup"),
				ql.FieldEQ("summary", "Offsite"),
				ql.FieldEQ("summary", "nothing"),
			),
			want: []string{ids["public"], ids["confidential"]},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.p, store.Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			n, err := s.Count(ctx, tt.p)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}
}

func TestSearchPage(t *testing.T) {
	ctx := context.Background()
	s, ids := seed(t)

	got, err := s.Search(ctx, nil, store.Page{Order: []store.Order{{Field: event.FieldSummary}}})
	require.NoError(t, err)
	assert.Equal(t, []string{ids["private"], ids["confidential"], ids["public"]}, got)

	got, err = s.Search(ctx, nil, store.Page{Offset: 1, Limit: 1, Order: []store.Order{{Field: event.FieldSummary, Desc: true}}})
	require.NoError(t, err)
	assert.Equal(t, []string{ids["confidential"]}, got)

	got, err = s.Search(ctx, nil, store.Page{Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{ids["confidential"]}, got)

	got, err = s.Search(ctx, nil, store.Page{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.Search(ctx, nil, store.Page{Order: []store.Order{{Field: event.FieldAlarms}}})
	assert.True(t, eventguard.IsQueryError(err))

	_, err = s.Search(ctx, ql.FieldEQ("categories", "daily"), store.Page{})
	assert.True(t, eventguard.IsQueryError(err))
}

func TestRead(t *testing.T) {
	ctx := context.Background()
	s, ids := seed(t, sqlstore.WithBatchSize(1))

	evs, err := s.Read(ctx, []string{ids["private"], "missing", ids["public"], ids["private"]},
		[]event.Field{event.FieldSummary, event.FieldCalendar.DisplayName()})
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, ids["private"], evs[0].ID)
	assert.Equal(t, "Dentist", evs[0].Summary)
	assert.Equal(t, "Alice", evs[0].Display[event.FieldCalendar])
	assert.False(t, evs[0].Has(event.FieldClassification))
	assert.Equal(t, ids["public"], evs[1].ID)

	all, err := s.Read(ctx, []string{ids["public"]}, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	for _, f := range event.AllFields {
		assert.True(t, all[0].Has(f), f)
	}
	assert.Equal(t, event.Opaque, all[0].Transparency)
	assert.Equal(t, event.Public, all[0].Classification)
	assert.Equal(t, []string{"work", "daily"}, all[0].Categories)
	assert.Nil(t, all[0].Location)

	conf, err := s.Read(ctx, []string{ids["confidential"]}, []event.Field{event.FieldLocation, event.FieldLocation.DisplayName()})
	require.NoError(t, err)
	require.NotNil(t, conf[0].Location)
	assert.Equal(t, "Lake", *conf[0].Location)
	assert.Equal(t, "Lake", conf[0].Display[event.FieldLocation])

	_, err = s.Read(ctx, []string{ids["public"]}, []event.Field{"nope"})
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	s, ids := seed(t)

	alarms := []event.Alarm{{Action: "DISPLAY", Trigger: "-PT15M"}}
	err := s.Write(ctx, []string{ids["public"], ids["private"]}, event.Values{
		event.FieldStatus:    "CONFIRMED",
		event.FieldAlarms:    alarms,
		event.FieldAttendees: []string{"mailto:bob@example.com"},
	})
	require.NoError(t, err)
	n, err := s.Count(ctx, ql.FieldEQ("status", "CONFIRMED"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	evs, err := s.Read(ctx, []string{ids["private"]}, []event.Field{event.FieldAlarms, event.FieldAttendees})
	require.NoError(t, err)
	assert.Equal(t, alarms, evs[0].Alarms)
	assert.Equal(t, []string{"mailto:bob@example.com"}, evs[0].Attendees)

	err = s.Write(ctx, []string{ids["public"], "missing"}, event.Values{event.FieldStatus: "CANCELLED"})
	assert.True(t, eventguard.IsNotFound(err))
	assert.True(t, eventguard.IsMutationError(err))
	n, err = s.Count(ctx, ql.FieldEQ("status", "CANCELLED"))
	require.NoError(t, err)
	assert.Zero(t, n)

	err = s.Write(ctx, []string{ids["public"]}, event.Values{event.FieldClassification: "secret"})
	assert.True(t, eventguard.IsValidationError(err))

	err = s.Write(ctx, []string{ids["public"]}, event.Values{event.FieldCalendar: "nope"})
	assert.True(t, eventguard.IsConstraintError(err))

	err = s.Write(ctx, []string{ids["public"]}, event.Values{event.FieldID: "other"})
	assert.True(t, eventguard.IsValidationError(err))

	require.NoError(t, s.Write(ctx, []string{ids["public"]}, event.Values{event.FieldLocation: nil, event.FieldCategories: nil}))
	evs, err = s.Read(ctx, []string{ids["public"]}, []event.Field{event.FieldLocation, event.FieldCategories})
	require.NoError(t, err)
	assert.Nil(t, evs[0].Location)
	assert.Empty(t, evs[0].Categories)
}

func TestCreateDelete(t *testing.T) {
	ctx := context.Background()
	s, ids := seed(t)

	_, err := s.Create(ctx, event.Values{event.FieldSummary: "orphan"})
	assert.True(t, eventguard.IsValidationError(err))

	_, err = s.Create(ctx, event.Values{event.FieldCalendar: "nope"})
	assert.True(t, eventguard.IsConstraintError(err))

	require.NoError(t, s.Delete(ctx, []string{ids["public"], "missing"}))
	n, err := s.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	id, err := s.Create(ctx, event.Values{event.FieldCalendar: "cal-a", event.FieldSummary: "Late"})
	require.NoError(t, err)
	got, err := s.Search(ctx, nil, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{ids["private"], ids["confidential"], id}, got)
}

func TestTx(t *testing.T) {
	ctx := context.Background()
	s, ids := seed(t)

	abort := errors.New("abort")
	err := s.Tx(ctx, func(ctx context.Context) error {
		if _, err := s.Create(ctx, event.Values{event.FieldCalendar: "cal-a"}); err != nil {
			return err
		}
		if err := s.Write(ctx, []string{ids["public"]}, event.Values{event.FieldSummary: "changed"}); err != nil {
			return err
		}
		n, err := s.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, n, "the transaction sees its own writes")
		return abort
	})
	require.ErrorIs(t, err, abort)

	n, err := s.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	evs, err := s.Read(ctx, []string{ids["public"]}, []event.Field{event.FieldSummary})
	require.NoError(t, err)
	assert.Equal(t, "Standup", evs[0].Summary)

	require.NoError(t, s.Tx(ctx, func(ctx context.Context) error {
		return s.Delete(ctx, []string{ids["public"]})
	}))
	n, err = s.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCalendars(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	id, err := s.CreateCalendar(ctx, &event.Calendar{Name: "Team", Owner: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.CreateCalendar(ctx, &event.Calendar{ID: id})
	assert.True(t, eventguard.IsConstraintError(err))

	require.NoError(t, s.SetWriteUsers(ctx, id, []string{"carol", "bob", "bob"}))
	c, err := s.Calendar(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, c.WriteUsers)
	assert.Equal(t, "Team", c.Name)
	assert.True(t, c.CanWrite("alice"))
	assert.True(t, c.CanWrite("carol"))
	assert.False(t, c.CanWrite("dave"))

	require.NoError(t, s.SetWriteUsers(ctx, id, nil))
	c, err = s.Calendar(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, c.WriteUsers)

	_, err = s.Calendar(ctx, "missing")
	assert.True(t, eventguard.IsNotFound(err))
	assert.True(t, eventguard.IsNotFound(s.SetWriteUsers(ctx, "missing", nil)))
}

func TestPostgresStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := sqlstore.New(sql.OpenDB(dialect.Postgres, db))
	ctx := context.Background()

	mock.ExpectQuery(`SELECT "id" FROM "calendar_event" WHERE \("classification" = \$1 OR "calendar_id" IN \(SELECT "calendar_id" FROM "calendar_calendar_write_user" WHERE "user_id" = \$2\)\) ORDER BY "summary" DESC, "seq" LIMIT 5 OFFSET 10`).
		WithArgs("public", "bob").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e1"))
	ids, err := s.Search(ctx,
		ql.Or(ql.FieldEQ("classification", "public"), ql.FieldEQ(event.PathCalendarWriteUsers, "bob")),
		store.Page{Offset: 10, Limit: 5, Order: []store.Order{{Field: event.FieldSummary, Desc: true}}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "calendar_event" WHERE 1 = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	n, err := s.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "calendar_event" WHERE "id" IN \(\$1, \$2\)`).
		WithArgs("e1", "e2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	require.NoError(t, s.Delete(ctx, []string{"e1", "e2", "e1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := sqlstore.New(sql.OpenDB(dialect.Postgres, db))

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))
	abort := errors.New("abort")
	err = s.Tx(context.Background(), func(context.Context) error { return abort })
	var rerr *eventguard.RollbackError
	require.ErrorAs(t, err, &rerr)
	assert.ErrorIs(t, err, abort)
	require.NoError(t, mock.ExpectationsWereMet())
}
