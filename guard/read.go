package guard

import (
	"context"
	"slices"

	"github.com/syssam/eventguard"
	"github.com/syssam/eventguard/document"
	"github.com/syssam/eventguard/event"
	"github.com/syssam/eventguard/store"
)

// internal fields are always fetched; redaction depends on them.
var internal = []event.Field{
	event.FieldClassification,
	event.FieldCalendar,
	event.FieldTransparency,
}

// Read returns the events in ids, holding the given fields (nil meaning
// all), one per distinct id in request order. It fails with an AccessError
// before fetching anything when an id is not visible to the acting user.
// Private events the user cannot write are redacted.
func (g *Guard) Read(ctx context.Context, ids []string, fields []event.Field) ([]*event.Event, error) {
	ids = store.Distinct(ids)
	if err := g.checkVisible(ctx, eventguard.OpRead, ids); err != nil {
		return nil, err
	}
	writable, err := g.writable(ctx, ids)
	if err != nil {
		return nil, err
	}
	fields = store.Fields(fields)
	fetch := slices.Clone(fields)
	var added []event.Field
	for _, f := range internal {
		if !slices.Contains(fields, f) {
			fetch = append(fetch, f)
			added = append(added, f)
		}
	}
	records, err := g.store.Read(ctx, ids, fetch)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Classification == event.Private && writable != nil {
			if _, ok := writable[r.ID]; !ok {
				if err := g.redact(ctx, r); err != nil {
					return nil, err
				}
			}
		}
		for _, f := range added {
			r.Unset(f)
		}
	}
	return records, nil
}

// redact replaces the private content of e, as loaded, with the Free/Busy
// placeholder.
func (g *Guard) redact(ctx context.Context, e *event.Event) error {
	label := g.labels.Label(ctx, string(e.Transparency))
	if e.Has(event.FieldSummary) {
		e.Summary = label
	}
	if e.Has(event.FieldDescription) {
		e.Description = ""
	}
	if e.Has(event.FieldCategories) {
		e.Categories = []string{}
	}
	if e.Has(event.FieldLocation) {
		e.Location = nil
	}
	if e.Has(event.FieldStatus) {
		e.Status = ""
	}
	if e.Has(event.FieldOrganizer) {
		e.Organizer = ""
	}
	if e.Has(event.FieldAttendees) {
		e.Attendees = []string{}
	}
	if e.Has(event.FieldAlarms) {
		e.Alarms = []event.Alarm{}
	}
	for f := range e.Display {
		e.Display[f] = ""
	}
	if e.Has(event.FieldVEvent) && e.VEvent != "" {
		vevent, err := g.redactDocument(e.VEvent, label)
		if err != nil {
			return eventguard.NewIntegrityError(event.Entity, string(event.FieldVEvent), err)
		}
		e.VEvent = vevent
	}
	return nil
}

func (g *Guard) redactDocument(blob, label string) (string, error) {
	doc, err := g.codec.Parse(blob)
	if err != nil {
		return "", err
	}
	if err := doc.Set(document.Summary, label); err != nil {
		return "", err
	}
	for _, f := range document.Private {
		doc.Delete(f)
	}
	return g.codec.Serialize(doc)
}
