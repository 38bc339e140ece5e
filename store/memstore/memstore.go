// Package memstore provides an in-memory store.Store. Predicates are
// evaluated directly against the records.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/syssam/eventguard"
	"github.com/syssam/eventguard/event"
	ql "github.com/syssam/eventguard/querylanguage"
	"github.com/syssam/eventguard/store"
)

type record struct {
	seq int64
	ev  *event.Event
}

// Store is an in-memory event and calendar store. It is safe for
// concurrent use. Records are copied in and out.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	events    map[string]*record
	calendars map[string]*event.Calendar
	newID     func() string
}

var (
	_ store.Store         = (*Store)(nil)
	_ store.CalendarStore = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the id generator. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		events:    make(map[string]*record),
		calendars: make(map[string]*event.Calendar),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCalendar stores c and returns its id, generating one when c.ID is
// empty.
func (s *Store) CreateCalendar(_ context.Context, c *event.Calendar) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneCalendar(c)
	if cp.ID == "" {
		cp.ID = s.newID()
	}
	if _, ok := s.calendars[cp.ID]; ok {
		return "", eventguard.NewConstraintError(fmt.Sprintf("calendar %q already exists", cp.ID), nil)
	}
	s.calendars[cp.ID] = cp
	return cp.ID, nil
}

// Calendar returns a copy of the calendar.
func (s *Store) Calendar(_ context.Context, id string) (*event.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calendars[id]
	if !ok {
		return nil, eventguard.NewNotFoundErrorWithID("calendar", id)
	}
	return cloneCalendar(c), nil
}

// SetWriteUsers replaces the write users of a calendar.
func (s *Store) SetWriteUsers(_ context.Context, id string, users []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calendars[id]
	if !ok {
		return eventguard.NewNotFoundErrorWithID("calendar", id)
	}
	c.WriteUsers = slices.Clone(store.Distinct(users))
	return nil
}

// Search returns the ids of events matching p, in insertion order unless
// page orders them otherwise.
func (s *Store) Search(_ context.Context, p ql.P, page store.Page) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched, err := s.match(p)
	if err != nil {
		return nil, eventguard.NewQueryError(event.Entity, "search", err)
	}
	if err := sortRecords(matched, page.Order); err != nil {
		return nil, eventguard.NewQueryError(event.Entity, "search", err)
	}
	if page.Offset > 0 {
		matched = matched[min(page.Offset, len(matched)):]
	}
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	ids := make([]string, len(matched))
	for i, r := range matched {
		ids[i] = r.ev.ID
	}
	return ids, nil
}

// Count returns the number of events matching p.
func (s *Store) Count(_ context.Context, p ql.P) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched, err := s.match(p)
	if err != nil {
		return 0, eventguard.NewQueryError(event.Entity, "count", err)
	}
	return len(matched), nil
}

// Read returns copies of the events in ids, each distinct id once, in
// request order. Unknown ids are skipped.
func (s *Store) Read(_ context.Context, ids []string, fields []event.Field) ([]*event.Event, error) {
	for _, f := range fields {
		if !f.Known() {
			return nil, eventguard.NewQueryError(event.Entity, "read", fmt.Errorf("unknown field %q", f))
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields = store.Fields(fields)
	out := make([]*event.Event, 0, len(ids))
	for _, id := range store.Distinct(ids) {
		r, ok := s.events[id]
		if !ok {
			continue
		}
		out = append(out, r.ev.Project(fields, s.calendarName))
	}
	return out, nil
}

// Write applies values to every event in ids. Either all events are
// updated or none.
func (s *Store) Write(_ context.Context, ids []string, values event.Values) error {
	if err := values.Validate(); err != nil {
		return eventguard.NewMutationError(event.Entity, "write", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCalendar(values); err != nil {
		return eventguard.NewMutationError(event.Entity, "write", err)
	}
	updated := make([]*event.Event, 0, len(ids))
	for _, id := range store.Distinct(ids) {
		r, ok := s.events[id]
		if !ok {
			return eventguard.NewMutationError(event.Entity, "write", eventguard.NewNotFoundErrorWithID(event.Entity, id))
		}
		e := r.ev.Clone()
		if err := values.Apply(e); err != nil {
			return eventguard.NewMutationError(event.Entity, "write", err)
		}
		updated = append(updated, e)
	}
	for _, e := range updated {
		s.events[e.ID].ev = e
	}
	return nil
}

// Create stores a new event built from values.
func (s *Store) Create(_ context.Context, values event.Values) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := event.New(s.newID(), values)
	if err != nil {
		return "", eventguard.NewMutationError(event.Entity, "create", err)
	}
	if err := s.checkCalendar(values); err != nil {
		return "", eventguard.NewMutationError(event.Entity, "create", err)
	}
	if _, ok := s.events[e.ID]; ok {
		return "", eventguard.NewMutationError(event.Entity, "create",
			eventguard.NewConstraintError(fmt.Sprintf("event %q already exists", e.ID), nil))
	}
	s.seq++
	s.events[e.ID] = &record{seq: s.seq, ev: e}
	return e.ID, nil
}

// Delete removes the events in ids. Unknown ids are ignored.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.events, id)
	}
	return nil
}

func (s *Store) match(p ql.P) ([]*record, error) {
	matched := make([]*record, 0, len(s.events))
	for _, r := range s.events {
		ok, err := eval(p, s.resolver(r.ev))
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, r)
		}
	}
	slices.SortFunc(matched, func(a, b *record) int { return cmp.Compare(a.seq, b.seq) })
	return matched, nil
}

func (s *Store) checkCalendar(values event.Values) error {
	v, ok := values[event.FieldCalendar]
	if !ok {
		return nil
	}
	id, _ := v.(string)
	if _, ok := s.calendars[id]; !ok {
		return eventguard.NewConstraintError(fmt.Sprintf("calendar %q does not exist", id), nil)
	}
	return nil
}

func (s *Store) calendarName(id string) string {
	if c, ok := s.calendars[id]; ok {
		return c.Name
	}
	return ""
}

func sortRecords(rs []*record, order []store.Order) error {
	if len(order) == 0 {
		return nil
	}
	for _, o := range order {
		if o.Field != event.FieldID && (!o.Field.Known() || o.Field.IsDisplayName() || o.Field == event.FieldAlarms) {
			return fmt.Errorf("cannot order by %q", o.Field)
		}
	}
	slices.SortStableFunc(rs, func(a, b *record) int {
		for _, o := range order {
			c := cmp.Compare(sortKey(a.ev, o.Field), sortKey(b.ev, o.Field))
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return nil
}

func sortKey(e *event.Event, f event.Field) string {
	switch f {
	case event.FieldID:
		return e.ID
	case event.FieldClassification:
		return string(e.Classification)
	case event.FieldTransparency:
		return string(e.Transparency)
	case event.FieldSummary:
		return e.Summary
	case event.FieldDescription:
		return e.Description
	case event.FieldStatus:
		return e.Status
	case event.FieldVEvent:
		return e.VEvent
	}
	// calendar, location, organizer and the sets sort by their text form.
	return e.DisplayName(f, nil)
}

func cloneCalendar(c *event.Calendar) *event.Calendar {
	cp := *c
	cp.WriteUsers = slices.Clone(c.WriteUsers)
	return &cp
}
