package sqlstore

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/eventguard"
	"github.com/syssam/eventguard/contrib/dataloader"
	"github.com/syssam/eventguard/dialect"
	"github.com/syssam/eventguard/dialect/sql"
	"github.com/syssam/eventguard/event"
	ql "github.com/syssam/eventguard/querylanguage"
	"github.com/syssam/eventguard/store"
)

// Search returns the ids of events matching p, in insertion order unless
// page orders them otherwise.
func (s *Store) Search(ctx context.Context, p ql.P, page store.Page) ([]string, error) {
	b := s.builder()
	b.WriteString("SELECT ").Ident("id").WriteString(" FROM ").Ident(EventTable).WriteString(" WHERE ")
	if err := sql.CompileTo(b, searchSchema, p); err != nil {
		return nil, eventguard.NewQueryError(event.Entity, "search", err)
	}
	b.WriteString(" ORDER BY ")
	for _, o := range page.Order {
		col, ok := columns[o.Field]
		if !ok || encoded[o.Field] {
			return nil, eventguard.NewQueryError(event.Entity, "search", fmt.Errorf("cannot order by %q", o.Field))
		}
		b.Ident(col)
		if o.Desc {
			b.WriteString(" DESC")
		}
		b.WriteString(", ")
	}
	b.Ident("seq")
	s.paginate(b, page)
	var ids []string
	err := s.query(ctx, b, func(rows sql.ColumnScanner) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, eventguard.NewQueryError(event.Entity, "search", err)
	}
	return ids, nil
}

func (s *Store) paginate(b *sql.Builder, page store.Page) {
	switch {
	case page.Limit > 0:
		b.WriteString(" LIMIT " + strconv.Itoa(page.Limit))
	case page.Offset > 0 && s.drv.Dialect() == dialect.SQLite:
		b.WriteString(" LIMIT -1")
	case page.Offset > 0 && s.drv.Dialect() == dialect.MySQL:
		b.WriteString(" LIMIT 18446744073709551615")
	}
	if page.Offset > 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(page.Offset))
	}
}

// Count returns the number of events matching p.
func (s *Store) Count(ctx context.Context, p ql.P) (int, error) {
	b := s.builder()
	b.WriteString("SELECT COUNT(*) FROM ").Ident(EventTable).WriteString(" WHERE ")
	if err := sql.CompileTo(b, searchSchema, p); err != nil {
		return 0, eventguard.NewQueryError(event.Entity, "count", err)
	}
	var n int
	if err := s.query(ctx, b, func(rows sql.ColumnScanner) error { return rows.Scan(&n) }); err != nil {
		return 0, eventguard.NewQueryError(event.Entity, "count", err)
	}
	return n, nil
}

// Read returns the events in ids, each distinct id once, in request order.
// Unknown ids are skipped.
func (s *Store) Read(ctx context.Context, ids []string, fields []event.Field) ([]*event.Event, error) {
	for _, f := range fields {
		if !f.Known() {
			return nil, eventguard.NewQueryError(event.Entity, "read", fmt.Errorf("unknown field %q", f))
		}
	}
	fields = store.Fields(fields)
	ids = store.Distinct(ids)
	var events []*event.Event
	for _, chunk := range s.chunks(ids, 0) {
		b := s.builder()
		b.WriteString("SELECT ").IdentComma(selectColumns...).WriteString(" FROM ").Ident(EventTable).
			WriteString(" WHERE ").Ident("id").WriteString(" IN (").Args(anys(chunk)...).WriteString(")")
		err := s.query(ctx, b, func(rows sql.ColumnScanner) error {
			e, err := scanEvent(rows)
			if err != nil {
				return err
			}
			events = append(events, e)
			return nil
		})
		if err != nil {
			return nil, eventguard.NewQueryError(event.Entity, "read", err)
		}
	}
	events = dataloader.Present(ids, events, func(e *event.Event) string { return e.ID })
	names, err := s.calendarNames(ctx, events, fields)
	if err != nil {
		return nil, err
	}
	out := make([]*event.Event, len(events))
	for i, e := range events {
		out[i] = e.Project(fields, func(id string) string { return names[id] })
	}
	return out, nil
}

// calendarNames loads the calendar names when the calendar display name
// was requested.
func (s *Store) calendarNames(ctx context.Context, events []*event.Event, fields []event.Field) (map[string]string, error) {
	want := false
	for _, f := range fields {
		if f == event.FieldCalendar.DisplayName() {
			want = true
			break
		}
	}
	if !want || len(events) == 0 {
		return nil, nil
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.Calendar
	}
	cs, err := s.Calendars(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cs))
	for _, c := range cs {
		names[c.ID] = c.Name
	}
	return names, nil
}

func scanEvent(rows sql.ColumnScanner) (*event.Event, error) {
	var (
		e                             event.Event
		categories, attendees, alarms []byte
		location                      stdsql.NullString
	)
	err := rows.Scan(
		&e.ID, &e.Classification, &e.Calendar, &e.Transparency, &e.Summary,
		&e.Description, &categories, &location, &e.Status, &e.Organizer,
		&attendees, &alarms, &e.VEvent,
	)
	if err != nil {
		return nil, err
	}
	if location.Valid {
		e.Location = &location.String
	}
	if err := decode(categories, &e.Categories); err != nil {
		return nil, fmt.Errorf("decoding categories of %q: %w", e.ID, err)
	}
	if err := decode(attendees, &e.Attendees); err != nil {
		return nil, fmt.Errorf("decoding attendees of %q: %w", e.ID, err)
	}
	if err := decode(alarms, &e.Alarms); err != nil {
		return nil, fmt.Errorf("decoding alarms of %q: %w", e.ID, err)
	}
	e.Mark(event.FieldID)
	e.Mark(event.AllFields...)
	return &e, nil
}

// Write applies values to every event in ids. Either all events are
// updated or none.
func (s *Store) Write(ctx context.Context, ids []string, values event.Values) error {
	if err := values.Validate(); err != nil {
		return eventguard.NewMutationError(event.Entity, "write", err)
	}
	ids = store.Distinct(ids)
	if len(ids) == 0 {
		return nil
	}
	cols, args, err := assignments(values)
	if err != nil {
		return eventguard.NewMutationError(event.Entity, "write", err)
	}
	err = s.Tx(ctx, func(ctx context.Context) error {
		if id, ok := values[event.FieldCalendar].(string); ok {
			if err := s.calendarExists(ctx, id); err != nil {
				return err
			}
		}
		found, err := s.existing(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return eventguard.NewNotFoundErrorWithID(event.Entity, id)
			}
		}
		if len(cols) == 0 {
			return nil
		}
		for _, chunk := range s.chunks(ids, len(args)) {
			b := s.builder()
			b.WriteString("UPDATE ").Ident(EventTable).WriteString(" SET ")
			for i, col := range cols {
				if i > 0 {
					b.WriteString(", ")
				}
				b.Ident(col).WriteString(" = ").Arg(args[i])
			}
			b.WriteString(" WHERE ").Ident("id").WriteString(" IN (").Args(anys(chunk)...).WriteString(")")
			if _, err := s.exec(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return eventguard.NewMutationError(event.Entity, "write", err)
	}
	return nil
}

func (s *Store) existing(ctx context.Context, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(ids))
	for _, chunk := range s.chunks(ids, 0) {
		b := s.builder()
		b.WriteString("SELECT ").Ident("id").WriteString(" FROM ").Ident(EventTable).
			WriteString(" WHERE ").Ident("id").WriteString(" IN (").Args(anys(chunk)...).WriteString(")")
		err := s.query(ctx, b, func(rows sql.ColumnScanner) error {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			found[id] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// Create stores a new event built from values.
func (s *Store) Create(ctx context.Context, values event.Values) (string, error) {
	e, err := event.New(s.newID(), values)
	if err != nil {
		return "", eventguard.NewMutationError(event.Entity, "create", err)
	}
	args, err := row(e)
	if err != nil {
		return "", eventguard.NewMutationError(event.Entity, "create", err)
	}
	err = s.Tx(ctx, func(ctx context.Context) error {
		if err := s.calendarExists(ctx, e.Calendar); err != nil {
			return err
		}
		b := s.builder()
		b.WriteString("SELECT COALESCE(MAX(").Ident("seq").WriteString("), 0) FROM ").Ident(EventTable)
		var seq int64
		if err := s.query(ctx, b, func(rows sql.ColumnScanner) error { return rows.Scan(&seq) }); err != nil {
			return err
		}
		b = s.builder()
		b.WriteString("INSERT INTO ").Ident(EventTable).WriteString(" (").Ident("seq").WriteString(", ").
			IdentComma(selectColumns...).WriteString(") VALUES (").Arg(seq + 1).WriteString(", ").
			Args(args...).WriteString(")")
		_, err := s.exec(ctx, b)
		return err
	})
	if err != nil {
		return "", eventguard.NewMutationError(event.Entity, "create", err)
	}
	return e.ID, nil
}

// Delete removes the events in ids. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	ids = store.Distinct(ids)
	if len(ids) == 0 {
		return nil
	}
	err := s.Tx(ctx, func(ctx context.Context) error {
		for _, chunk := range s.chunks(ids, 0) {
			b := s.builder()
			b.WriteString("DELETE FROM ").Ident(EventTable).WriteString(" WHERE ").Ident("id").
				WriteString(" IN (").Args(anys(chunk)...).WriteString(")")
			if _, err := s.exec(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return eventguard.NewMutationError(event.Entity, "delete", err)
	}
	return nil
}

// row returns the values of e in selectColumns order.
func row(e *event.Event) ([]any, error) {
	args := make([]any, 0, len(selectColumns))
	for _, f := range append([]event.Field{event.FieldID}, event.AllFields...) {
		v, err := columnValue(e, f)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// assignments returns the columns and values set by values.
func assignments(values event.Values) ([]string, []any, error) {
	var e event.Event
	if err := values.Apply(&e); err != nil {
		return nil, nil, err
	}
	fields := values.Fields()
	cols := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		v, err := columnValue(&e, f)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, columns[f])
		args = append(args, v)
	}
	return cols, args, nil
}

func columnValue(e *event.Event, f event.Field) (any, error) {
	switch f {
	case event.FieldID:
		return e.ID, nil
	case event.FieldClassification:
		return string(e.Classification), nil
	case event.FieldCalendar:
		return e.Calendar, nil
	case event.FieldTransparency:
		return string(e.Transparency), nil
	case event.FieldSummary:
		return e.Summary, nil
	case event.FieldDescription:
		return e.Description, nil
	case event.FieldCategories:
		return encode(e.Categories)
	case event.FieldLocation:
		if e.Location == nil {
			return nil, nil
		}
		return *e.Location, nil
	case event.FieldStatus:
		return e.Status, nil
	case event.FieldOrganizer:
		return e.Organizer, nil
	case event.FieldAttendees:
		return encode(e.Attendees)
	case event.FieldAlarms:
		return encode(e.Alarms)
	case event.FieldVEvent:
		return e.VEvent, nil
	}
	return nil, fmt.Errorf("unknown field %q", f)
}

// encode stores empty lists as NULL.
func encode[T any](v []T) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func decode[T any](b []byte, v *[]T) error {
	if len(b) == 0 {
		return nil
	}
	return msgpack.Unmarshal(b, v)
}
