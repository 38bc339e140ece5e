// Package store defines the record-store contracts the guard sits on.
//
// A Store knows nothing about users: it returns whatever matches. The
// guard package decorates a Store with visibility, redaction and the
// mutation integrity checks.
package store

import (
	"context"

	"github.com/syssam/eventguard/event"
	ql "github.com/syssam/eventguard/querylanguage"
)

// Order is a sort key. Fields default to ascending.
type Order struct {
	Field event.Field
	Desc  bool
}

// Page restricts a search. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
	Order  []Order
}

// Store is a calendar-event record store.
type Store interface {
	// Search returns the ids of events matching p, nil meaning all.
	Search(ctx context.Context, p ql.P, page Page) ([]string, error)
	// Count returns the number of events matching p.
	Count(ctx context.Context, p ql.P) (int, error)
	// Read returns the events with the given ids, holding the given fields
	// (nil meaning all). Missing ids are skipped. The returned records are
	// owned by the caller.
	Read(ctx context.Context, ids []string, fields []event.Field) ([]*event.Event, error)
	// Write applies values to every event in ids.
	Write(ctx context.Context, ids []string, values event.Values) error
	// Create stores a new event and returns its id.
	Create(ctx context.Context, values event.Values) (string, error)
	// Delete removes the events in ids.
	Delete(ctx context.Context, ids []string) error
}

// CalendarStore manages the calendars events belong to.
type CalendarStore interface {
	CreateCalendar(ctx context.Context, c *event.Calendar) (string, error)
	Calendar(ctx context.Context, id string) (*event.Calendar, error)
	SetWriteUsers(ctx context.Context, id string, users []string) error
}

// Distinct returns ids without duplicates, in first-occurrence order.
func Distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Fields resolves a requested field list: nil means every stored field.
func Fields(fields []event.Field) []event.Field {
	if fields == nil {
		return event.AllFields
	}
	return fields
}
