// Package sqlstore provides a store.Store over a SQL database. Predicates
// are compiled into WHERE clauses; list fields are stored as msgpack blobs.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/syssam/eventguard"
	"github.com/syssam/eventguard/contrib/dataloader"
	"github.com/syssam/eventguard/dialect"
	"github.com/syssam/eventguard/dialect/sql"
	"github.com/syssam/eventguard/dialect/sql/schema"
	"github.com/syssam/eventguard/dialect/sql/sqlgraph"
	"github.com/syssam/eventguard/event"
	"github.com/syssam/eventguard/store"
)

// Store is a SQL event and calendar store.
type Store struct {
	drv       dialect.Driver
	logger    *slog.Logger
	newID     func() string
	batchSize int
}

var (
	_ store.Store         = (*Store)(nil)
	_ store.CalendarStore = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator sets the id generator. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithBatchSize caps the number of ids bound in a single IN list. The
// dialect parameter limit applies regardless.
func WithBatchSize(n int) Option {
	return func(s *Store) { s.batchSize = n }
}

// New returns a Store over drv.
func New(drv dialect.Driver, opts ...Option) *Store {
	s := &Store{
		drv:    drv,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Driver returns the underlying driver.
func (s *Store) Driver() dialect.Driver { return s.drv }

// Migrate creates the missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	return schema.NewMigrate(s.drv, schema.WithLogger(s.logger)).Create(ctx, Tables...)
}

type txKey struct{}

// Tx runs fn in a transaction carried by the context passed to it. Every
// store call made with that context joins the transaction. The transaction
// is rolled back if fn returns an error or panics. Nested calls join the
// outer transaction.
func (s *Store) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(dialect.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: starting a transaction: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return &eventguard.RollbackError{Err: fmt.Errorf("%w: %v", err, rerr)}
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	return nil
}

// conn returns the transaction of ctx, if any, or the driver.
func (s *Store) conn(ctx context.Context) dialect.ExecQuerier {
	if tx, ok := ctx.Value(txKey{}).(dialect.Tx); ok {
		return tx
	}
	return s.drv
}

func (s *Store) builder() *sql.Builder {
	return sql.Dialect(s.drv.Dialect())
}

func (s *Store) query(ctx context.Context, b *sql.Builder, scan func(sql.ColumnScanner) error) error {
	query, args := b.Query()
	rows := &sql.Rows{}
	if err := s.conn(ctx).Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) exec(ctx context.Context, b *sql.Builder) (int64, error) {
	query, args := b.Query()
	var res sql.Result
	if err := s.conn(ctx).Exec(ctx, query, args, &res); err != nil {
		return 0, sqlgraph.Wrap(err)
	}
	return res.RowsAffected()
}

// chunks splits ids for IN lists, leaving room for reserved parameters.
func (s *Store) chunks(ids []string, reserved int) [][]string {
	n := sql.MaxParams(s.drv.Dialect()) - reserved
	if s.batchSize > 0 && s.batchSize < n {
		n = s.batchSize
	}
	return slices.Collect(slices.Chunk(ids, max(n, 1)))
}

// CreateCalendar stores c and returns its id, generating one when c.ID is
// empty.
func (s *Store) CreateCalendar(ctx context.Context, c *event.Calendar) (string, error) {
	id := c.ID
	if id == "" {
		id = s.newID()
	}
	err := s.Tx(ctx, func(ctx context.Context) error {
		b := s.builder()
		b.WriteString("INSERT INTO ").Ident(CalendarTable).WriteString(" (").
			IdentComma("id", "name", "owner").WriteString(") VALUES (").
			Args(id, c.Name, c.Owner).WriteString(")")
		if _, err := s.exec(ctx, b); err != nil {
			return err
		}
		return s.insertWriteUsers(ctx, id, c.WriteUsers)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Calendar returns the calendar with the given id.
func (s *Store) Calendar(ctx context.Context, id string) (*event.Calendar, error) {
	cs, err := s.Calendars(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, eventguard.NewNotFoundErrorWithID("calendar", id)
	}
	return cs[0], nil
}

// Calendars returns the calendars with the given ids, in request order.
// Unknown ids are skipped.
func (s *Store) Calendars(ctx context.Context, ids []string) ([]*event.Calendar, error) {
	ids = store.Distinct(ids)
	var cs []*event.Calendar
	type member struct{ calendar, user string }
	var members []member
	for _, chunk := range s.chunks(ids, 0) {
		b := s.builder()
		b.WriteString("SELECT ").IdentComma("id", "name", "owner").WriteString(" FROM ").Ident(CalendarTable).
			WriteString(" WHERE ").Ident("id").WriteString(" IN (").Args(anys(chunk)...).WriteString(")")
		err := s.query(ctx, b, func(rows sql.ColumnScanner) error {
			c := &event.Calendar{}
			if err := rows.Scan(&c.ID, &c.Name, &c.Owner); err != nil {
				return err
			}
			cs = append(cs, c)
			return nil
		})
		if err != nil {
			return nil, eventguard.NewQueryError("calendar", "read", err)
		}
		b = s.builder()
		b.WriteString("SELECT ").IdentComma("calendar_id", "user_id").WriteString(" FROM ").Ident(WriteUserTable).
			WriteString(" WHERE ").Ident("calendar_id").WriteString(" IN (").Args(anys(chunk)...).
			WriteString(") ORDER BY ").IdentComma("calendar_id", "user_id")
		err = s.query(ctx, b, func(rows sql.ColumnScanner) error {
			var m member
			if err := rows.Scan(&m.calendar, &m.user); err != nil {
				return err
			}
			members = append(members, m)
			return nil
		})
		if err != nil {
			return nil, eventguard.NewQueryError("calendar", "read", err)
		}
	}
	byCalendar := dataloader.GroupByKey(members, func(m member) string { return m.calendar })
	for _, c := range cs {
		for _, m := range byCalendar[c.ID] {
			c.WriteUsers = append(c.WriteUsers, m.user)
		}
	}
	return dataloader.Present(ids, cs, func(c *event.Calendar) string { return c.ID }), nil
}

// SetWriteUsers replaces the write users of a calendar.
func (s *Store) SetWriteUsers(ctx context.Context, id string, users []string) error {
	return s.Tx(ctx, func(ctx context.Context) error {
		if _, err := s.Calendar(ctx, id); err != nil {
			return err
		}
		b := s.builder()
		b.WriteString("DELETE FROM ").Ident(WriteUserTable).WriteString(" WHERE ").Ident("calendar_id").
			WriteString(" = ").Arg(id)
		if _, err := s.exec(ctx, b); err != nil {
			return err
		}
		return s.insertWriteUsers(ctx, id, users)
	})
}

func (s *Store) insertWriteUsers(ctx context.Context, id string, users []string) error {
	users = store.Distinct(users)
	if len(users) == 0 {
		return nil
	}
	// Two parameters per row.
	for _, chunk := range slices.Collect(slices.Chunk(users, sql.MaxParams(s.drv.Dialect())/2)) {
		b := s.builder()
		b.WriteString("INSERT INTO ").Ident(WriteUserTable).WriteString(" (").
			IdentComma("calendar_id", "user_id").WriteString(") VALUES ")
		for i, u := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(").Args(id, u).WriteString(")")
		}
		if _, err := s.exec(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) calendarExists(ctx context.Context, id string) error {
	b := s.builder()
	b.WriteString("SELECT COUNT(*) FROM ").Ident(CalendarTable).WriteString(" WHERE ").Ident("id").
		WriteString(" = ").Arg(id)
	var n int
	err := s.query(ctx, b, func(rows sql.ColumnScanner) error { return rows.Scan(&n) })
	if err != nil {
		return err
	}
	if n == 0 {
		return eventguard.NewConstraintError(fmt.Sprintf("calendar %q does not exist", id), nil)
	}
	return nil
}

func anys(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
