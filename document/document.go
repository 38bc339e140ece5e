// Package document edits the iCalendar document embedded in calendar
// events. A document is a VCALENDAR holding one VEVENT; its sub-fields are
// the VEVENT properties and VALARM components mirrored by event fields.
package document

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/syssam/eventguard/event"
)

// SubField names a part of the VEVENT that mirrors an event field.
type SubField string

// Sub-fields.
const (
	Summary     SubField = "summary"
	Description SubField = "description"
	Categories  SubField = "categories"
	Location    SubField = "location"
	Status      SubField = "status"
	Organizer   SubField = "organizer"
	Attendees   SubField = "attendees"
	Alarms      SubField = "alarms"
)

// Private lists the sub-fields removed from private events.
var Private = []SubField{Description, Categories, Location, Status, Organizer, Attendees, Alarms}

var properties = map[SubField]ical.ComponentProperty{
	Summary:     ical.ComponentPropertySummary,
	Description: ical.ComponentPropertyDescription,
	Categories:  ical.ComponentPropertyCategories,
	Location:    ical.ComponentPropertyLocation,
	Status:      ical.ComponentPropertyStatus,
	Organizer:   ical.ComponentPropertyOrganizer,
	Attendees:   ical.ComponentPropertyAttendee,
}

// ErrNoEvent is returned when a calendar holds no VEVENT.
var ErrNoEvent = errors.New("document: calendar has no VEVENT")

// Document is a parsed calendar document.
type Document struct {
	cal *ical.Calendar
	ev  *ical.VEvent
}

// UID returns the UID of the event.
func (d *Document) UID() string {
	if p := d.ev.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		return p.Value
	}
	return ""
}

// Has reports whether the sub-field is present.
func (d *Document) Has(f SubField) bool {
	if f == Alarms {
		return len(d.alarms()) > 0
	}
	prop, ok := properties[f]
	return ok && len(d.ev.GetProperties(prop)) > 0
}

// Get returns the values of a text sub-field. Categories are split on
// commas; attendees yield one value per ATTENDEE property.
func (d *Document) Get(f SubField) []string {
	prop, ok := properties[f]
	if !ok {
		return nil
	}
	var vs []string
	for _, p := range d.ev.GetProperties(prop) {
		if f == Categories {
			for _, c := range strings.Split(p.Value, ",") {
				if c = strings.TrimSpace(c); c != "" {
					vs = append(vs, c)
				}
			}
			continue
		}
		vs = append(vs, p.Value)
	}
	return vs
}

// Set replaces a text sub-field. Setting no values deletes it.
func (d *Document) Set(f SubField, values ...string) error {
	prop, ok := properties[f]
	if !ok {
		return fmt.Errorf("document: sub-field %q is not text", f)
	}
	d.Delete(f)
	switch {
	case len(values) == 0:
	case f == Categories:
		d.ev.AddProperty(prop, strings.Join(values, ","))
	case f == Attendees:
		for _, v := range values {
			d.ev.AddProperty(prop, v)
		}
	default:
		d.ev.SetProperty(prop, values[0])
	}
	return nil
}

// Delete removes a sub-field entirely.
func (d *Document) Delete(f SubField) {
	if f == Alarms {
		comps := d.ev.Components[:0]
		for _, c := range d.ev.Components {
			if _, ok := c.(*ical.VAlarm); !ok {
				comps = append(comps, c)
			}
		}
		d.ev.Components = comps
		return
	}
	prop, ok := properties[f]
	if !ok {
		return
	}
	props := d.ev.Properties[:0]
	for _, p := range d.ev.Properties {
		if !strings.EqualFold(p.IANAToken, string(prop)) {
			props = append(props, p)
		}
	}
	d.ev.Properties = props
}

// Alarms returns the VALARM components as event alarms.
func (d *Document) Alarms() []event.Alarm {
	var as []event.Alarm
	for _, a := range d.alarms() {
		as = append(as, event.Alarm{
			Action:      value(a.GetProperty(ical.ComponentPropertyAction)),
			Trigger:     value(a.GetProperty(ical.ComponentPropertyTrigger)),
			Description: value(a.GetProperty(ical.ComponentPropertyDescription)),
		})
	}
	return as
}

// SetAlarms replaces the VALARM components.
func (d *Document) SetAlarms(alarms []event.Alarm) {
	d.Delete(Alarms)
	for _, al := range alarms {
		a := &ical.VAlarm{}
		a.SetProperty(ical.ComponentPropertyAction, strings.ToUpper(al.Action))
		a.SetProperty(ical.ComponentPropertyTrigger, al.Trigger)
		if al.Description != "" {
			a.SetProperty(ical.ComponentPropertyDescription, al.Description)
		}
		d.ev.Components = append(d.ev.Components, a)
	}
}

func (d *Document) alarms() []*ical.VAlarm {
	var as []*ical.VAlarm
	for _, c := range d.ev.Components {
		if a, ok := c.(*ical.VAlarm); ok {
			as = append(as, a)
		}
	}
	return as
}

func value(p *ical.IANAProperty) string {
	if p == nil {
		return ""
	}
	return p.Value
}

// Codec parses and serializes calendar documents.
type Codec interface {
	Parse(blob string) (*Document, error)
	Serialize(d *Document) (string, error)
}

// ICal is the Codec backed by golang-ical.
type ICal struct{}

var _ Codec = ICal{}

// Parse parses a VCALENDAR and selects its first VEVENT.
func (ICal) Parse(blob string) (*Document, error) {
	if strings.TrimSpace(blob) == "" {
		return nil, errors.New("document: empty calendar")
	}
	cal, err := ical.ParseCalendar(strings.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("document: parse: %w", err)
	}
	events := cal.Events()
	if len(events) == 0 {
		return nil, ErrNoEvent
	}
	return &Document{cal: cal, ev: events[0]}, nil
}

// Serialize writes the document back as iCalendar text.
func (ICal) Serialize(d *Document) (string, error) {
	var b strings.Builder
	if err := d.cal.SerializeTo(&b); err != nil {
		return "", fmt.Errorf("document: serialize: %w", err)
	}
	return b.String(), nil
}

// FromEvent builds the document mirroring e, stamped at stamp.
func FromEvent(e *event.Event, stamp time.Time) *Document {
	cal := ical.NewCalendar()
	cal.SetProductId("-//eventguard//EN")
	ev := cal.AddEvent(e.ID)
	ev.SetDtStampTime(stamp)
	d := &Document{cal: cal, ev: ev}
	if e.Classification != "" {
		ev.SetProperty(ical.ComponentPropertyClass, strings.ToUpper(string(e.Classification)))
	}
	if e.Transparency != "" {
		ev.SetProperty(ical.ComponentPropertyTransp, strings.ToUpper(string(e.Transparency)))
	}
	set := func(f SubField, v string) {
		if v != "" {
			_ = d.Set(f, v)
		}
	}
	set(Summary, e.Summary)
	set(Description, e.Description)
	if e.Location != nil {
		set(Location, *e.Location)
	}
	set(Status, e.Status)
	set(Organizer, e.Organizer)
	_ = d.Set(Categories, e.Categories...)
	_ = d.Set(Attendees, e.Attendees...)
	d.SetAlarms(e.Alarms)
	return d
}
