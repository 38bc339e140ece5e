package document_test

import (
	"strings"
	"testing"
	"time"

	"github.com/syssam/eventguard/document"
	"github.com/syssam/eventguard/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:ev-1\r\n" +
	"DTSTAMP:20240101T090000Z\r\n" +
	"DTSTART:20240102T100000Z\r\n" +
	"SUMMARY:Dentist\r\n" +
	"DESCRIPTION:Root canal\r\n" +
	"CATEGORIES:health,personal\r\n" +
	"LOCATION:Main Street 1\r\n" +
	"STATUS:CONFIRMED\r\n" +
	"ORGANIZER:mailto:alice@example.com\r\n" +
	"ATTENDEE:mailto:bob@example.com\r\n" +
	"ATTENDEE:mailto:carol@example.com\r\n" +
	"BEGIN:VALARM\r\n" +
	"ACTION:DISPLAY\r\n" +
	"TRIGGER:-PT15M\r\n" +
	"END:VALARM\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParse(t *testing.T) {
	d, err := document.ICal{}.Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, "ev-1", d.UID())
	assert.Equal(t, []string{"Dentist"}, d.Get(document.Summary))
	assert.Equal(t, []string{"health", "personal"}, d.Get(document.Categories))
	assert.Equal(t, []string{"mailto:bob@example.com", "mailto:carol@example.com"}, d.Get(document.Attendees))
	assert.Equal(t, []event.Alarm{{Action: "DISPLAY", Trigger: "-PT15M"}}, d.Alarms())
	for _, f := range document.Private {
		assert.True(t, d.Has(f), f)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "empty", blob: "  "},
		{name: "garbage", blob: "not a calendar"},
		{name: "no event", blob: "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := document.ICal{}.Parse(tt.blob)
			assert.Error(t, err)
		})
	}
	_, err := document.ICal{}.Parse("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n")
	assert.ErrorIs(t, err, document.ErrNoEvent)
}

func TestEditRoundTrip(t *testing.T) {
	codec := document.ICal{}
	d, err := codec.Parse(sample)
	require.NoError(t, err)

	require.NoError(t, d.Set(document.Summary, "Busy"))
	for _, f := range document.Private {
		d.Delete(f)
	}
	out, err := codec.Serialize(d)
	require.NoError(t, err)

	assert.Contains(t, out, "SUMMARY:Busy")
	for _, s := range []string{"DESCRIPTION", "CATEGORIES", "LOCATION", "STATUS", "ORGANIZER", "ATTENDEE", "VALARM"} {
		assert.NotContains(t, out, s)
	}
	assert.Contains(t, out, "DTSTART:20240102T100000Z")

	again, err := codec.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", again.UID())
	assert.Equal(t, []string{"Busy"}, again.Get(document.Summary))
	for _, f := range document.Private {
		assert.False(t, again.Has(f), f)
	}
}

func TestSet(t *testing.T) {
	d, err := document.ICal{}.Parse(sample)
	require.NoError(t, err)

	require.NoError(t, d.Set(document.Attendees, "mailto:dave@example.com"))
	assert.Equal(t, []string{"mailto:dave@example.com"}, d.Get(document.Attendees))

	require.NoError(t, d.Set(document.Location))
	assert.False(t, d.Has(document.Location))

	assert.Error(t, d.Set(document.Alarms, "x"))

	d.SetAlarms([]event.Alarm{{Action: "email", Trigger: "-PT1H", Description: "Soon"}})
	assert.Equal(t, []event.Alarm{{Action: "EMAIL", Trigger: "-PT1H", Description: "Soon"}}, d.Alarms())
}

func TestFromEvent(t *testing.T) {
	loc := "Room 4"
	e, err := event.New("ev-9", event.Values{
		event.FieldCalendar:       "cal-1",
		event.FieldClassification: event.Private,
		event.FieldSummary:        "Review",
		event.FieldLocation:       loc,
		event.FieldCategories:     []string{"work"},
		event.FieldAttendees:      []string{"mailto:bob@example.com"},
		event.FieldAlarms:         []event.Alarm{{Action: "DISPLAY", Trigger: "-PT5M"}},
	})
	require.NoError(t, err)

	d := document.FromEvent(e, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	out, err := document.ICal{}.Serialize(d)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "UID:ev-9")
	assert.Contains(t, out, "CLASS:PRIVATE")
	assert.Contains(t, out, "TRANSP:OPAQUE")
	assert.Contains(t, out, "SUMMARY:Review")
	assert.Contains(t, out, "LOCATION:Room 4")
	assert.NotContains(t, out, "DESCRIPTION")

	back, err := document.ICal{}.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, back.Get(document.Categories))
	assert.Equal(t, e.Alarms, back.Alarms())
}
