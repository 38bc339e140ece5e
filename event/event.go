// Package event defines the calendar records guarded by eventguard:
// events, calendars, their field names and partial-update values.
package event

import (
	"encoding/json"
	"slices"
	"strings"
)

// Entity is the entity kind of calendar events, as passed to rule providers.
const Entity = "calendar.event"

// Description is the default user-facing description of the entity.
const Description = "Calendar Event"

// Classification controls who may see an event and how much of it.
type Classification string

// Classification values.
const (
	Public       Classification = "public"
	Private      Classification = "private"
	Confidential Classification = "confidential"
)

// Valid reports whether c is a known classification.
func (c Classification) Valid() bool {
	switch c {
	case Public, Private, Confidential:
		return true
	}
	return false
}

// Transparency is the time transparency (free/busy) of an event.
type Transparency string

// Transparency values.
const (
	Transparent Transparency = "transparent"
	Opaque      Transparency = "opaque"
)

// Valid reports whether t is a known transparency.
func (t Transparency) Valid() bool {
	return t == Transparent || t == Opaque
}

// Alarm is a reminder attached to an event.
type Alarm struct {
	Action      string `msgpack:"action" json:"action"`
	Trigger     string `msgpack:"trigger" json:"trigger"` // RFC 5545 duration, e.g. -PT15M
	Description string `msgpack:"description,omitempty" json:"description,omitempty"`
}

// Calendar owns events. Its owner and write users may modify them.
type Calendar struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Owner      string   `json:"owner"`
	WriteUsers []string `json:"write_users"`
}

// CanWrite reports whether user is the owner or a write user.
func (c *Calendar) CanWrite(user string) bool {
	return c.Owner == user || slices.Contains(c.WriteUsers, user)
}

// Event is a calendar event record as returned by a store.
//
// Only fields listed by Fields are meaningful; the others hold zero
// values. Display holds the denormalized "<field>.display_name" companions
// that were loaded, keyed by base field.
type Event struct {
	ID             string
	Classification Classification
	Calendar       string
	Transparency   Transparency
	Summary        string
	Description    string
	Categories     []string
	Location       *string
	Status         string
	Organizer      string
	Attendees      []string
	Alarms         []Alarm
	VEvent         string
	Display        map[Field]string

	loaded map[Field]struct{}
}

// Has reports whether the field was loaded.
func (e *Event) Has(f Field) bool {
	_, ok := e.loaded[f]
	return ok
}

// Mark records f as loaded.
func (e *Event) Mark(fs ...Field) {
	if e.loaded == nil {
		e.loaded = make(map[Field]struct{}, len(fs))
	}
	for _, f := range fs {
		e.loaded[f] = struct{}{}
	}
}

// Unset removes f from the loaded fields and zeroes its value.
func (e *Event) Unset(f Field) {
	delete(e.loaded, f)
	if f.IsDisplayName() {
		delete(e.Display, f.Base())
		return
	}
	switch f {
	case FieldClassification:
		e.Classification = ""
	case FieldCalendar:
		e.Calendar = ""
	case FieldTransparency:
		e.Transparency = ""
	case FieldSummary:
		e.Summary = ""
	case FieldDescription:
		e.Description = ""
	case FieldCategories:
		e.Categories = nil
	case FieldLocation:
		e.Location = nil
	case FieldStatus:
		e.Status = ""
	case FieldOrganizer:
		e.Organizer = ""
	case FieldAttendees:
		e.Attendees = nil
	case FieldAlarms:
		e.Alarms = nil
	case FieldVEvent:
		e.VEvent = ""
	}
}

// Fields returns the loaded fields in a stable order.
func (e *Event) Fields() []Field {
	fs := make([]Field, 0, len(e.loaded))
	for f := range e.loaded {
		fs = append(fs, f)
	}
	slices.Sort(fs)
	return fs
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	c.Categories = slices.Clone(e.Categories)
	c.Attendees = slices.Clone(e.Attendees)
	c.Alarms = slices.Clone(e.Alarms)
	if e.Location != nil {
		loc := *e.Location
		c.Location = &loc
	}
	if e.Display != nil {
		c.Display = make(map[Field]string, len(e.Display))
		for k, v := range e.Display {
			c.Display[k] = v
		}
	}
	c.loaded = make(map[Field]struct{}, len(e.loaded))
	for k := range e.loaded {
		c.loaded[k] = struct{}{}
	}
	return &c
}

// Project returns a copy of the event holding only the given fields.
// Display-name companions are computed from the base values, with the
// calendar name supplied by calendarName.
func (e *Event) Project(fields []Field, calendarName func(id string) string) *Event {
	out := &Event{ID: e.ID}
	out.Mark(FieldID)
	for _, f := range fields {
		if f.IsDisplayName() {
			if out.Display == nil {
				out.Display = make(map[Field]string)
			}
			out.Display[f.Base()] = e.displayName(f.Base(), calendarName)
			out.Mark(f)
			continue
		}
		out.copyField(e, f)
		out.Mark(f)
	}
	return out
}

func (e *Event) copyField(src *Event, f Field) {
	switch f {
	case FieldClassification:
		e.Classification = src.Classification
	case FieldCalendar:
		e.Calendar = src.Calendar
	case FieldTransparency:
		e.Transparency = src.Transparency
	case FieldSummary:
		e.Summary = src.Summary
	case FieldDescription:
		e.Description = src.Description
	case FieldCategories:
		e.Categories = slices.Clone(src.Categories)
	case FieldLocation:
		if src.Location != nil {
			loc := *src.Location
			e.Location = &loc
		}
	case FieldStatus:
		e.Status = src.Status
	case FieldOrganizer:
		e.Organizer = src.Organizer
	case FieldAttendees:
		e.Attendees = slices.Clone(src.Attendees)
	case FieldAlarms:
		e.Alarms = slices.Clone(src.Alarms)
	case FieldVEvent:
		e.VEvent = src.VEvent
	}
}

// displayName computes the companion text of a base field.
func (e *Event) displayName(f Field, calendarName func(string) string) string {
	switch f {
	case FieldCalendar:
		if calendarName != nil {
			return calendarName(e.Calendar)
		}
		return e.Calendar
	case FieldLocation:
		if e.Location != nil {
			return *e.Location
		}
		return ""
	case FieldOrganizer:
		return e.Organizer
	case FieldCategories:
		return strings.Join(e.Categories, ", ")
	case FieldAttendees:
		return strings.Join(e.Attendees, ", ")
	}
	return ""
}

// DisplayName returns the computed companion text of a base field. Stores
// that keep events in memory use it to fill "<field>.display_name".
func (e *Event) DisplayName(f Field, calendarName func(string) string) string {
	return e.displayName(f, calendarName)
}

// Get returns the value of a loaded field, or nil when f is not loaded.
func (e *Event) Get(f Field) any {
	if !e.Has(f) {
		return nil
	}
	if f.IsDisplayName() {
		return e.Display[f.Base()]
	}
	switch f {
	case FieldID:
		return e.ID
	case FieldClassification:
		return e.Classification
	case FieldCalendar:
		return e.Calendar
	case FieldTransparency:
		return e.Transparency
	case FieldSummary:
		return e.Summary
	case FieldDescription:
		return e.Description
	case FieldCategories:
		return e.Categories
	case FieldLocation:
		return e.Location
	case FieldStatus:
		return e.Status
	case FieldOrganizer:
		return e.Organizer
	case FieldAttendees:
		return e.Attendees
	case FieldAlarms:
		return e.Alarms
	case FieldVEvent:
		return e.VEvent
	}
	return nil
}

// MarshalJSON encodes the loaded fields as an object keyed by field name.
func (e *Event) MarshalJSON() ([]byte, error) {
	m := make(map[Field]any, len(e.loaded))
	for f := range e.loaded {
		m[f] = e.Get(f)
	}
	return json.Marshal(m)
}
