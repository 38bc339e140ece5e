package sqlstore

import (
	"github.com/syssam/eventguard/dialect/sql"
	"github.com/syssam/eventguard/dialect/sql/schema"
	"github.com/syssam/eventguard/event"
)

// Table names.
const (
	CalendarTable  = "calendar_calendar"
	WriteUserTable = "calendar_calendar_write_user"
	EventTable     = "calendar_event"
)

var (
	calendarID        = &schema.Column{Name: "id", Type: schema.TypeString, Size: 36}
	writeUserCalendar = &schema.Column{Name: "calendar_id", Type: schema.TypeString, Size: 36}
	writeUserUser     = &schema.Column{Name: "user_id", Type: schema.TypeString}
	eventID           = &schema.Column{Name: "id", Type: schema.TypeString, Size: 36}
	eventSeq          = &schema.Column{Name: "seq", Type: schema.TypeInt}
	eventCalendar     = &schema.Column{Name: "calendar_id", Type: schema.TypeString, Size: 36}
)

// CalendarsTable holds calendars.
var CalendarsTable = schema.NewTable(CalendarTable).
	AddColumns(
		calendarID,
		&schema.Column{Name: "name", Type: schema.TypeText},
		&schema.Column{Name: "owner", Type: schema.TypeString},
	).
	SetPrimaryKey(calendarID)

// WriteUsersTable holds the write users of each calendar.
var WriteUsersTable = schema.NewTable(WriteUserTable).
	AddColumns(writeUserCalendar, writeUserUser).
	SetPrimaryKey(writeUserCalendar, writeUserUser).
	AddForeignKey(&schema.ForeignKey{
		Symbol:     "calendar_calendar_write_user_calendar",
		Columns:    []*schema.Column{writeUserCalendar},
		RefTable:   CalendarsTable,
		RefColumns: []*schema.Column{calendarID},
		OnDelete:   schema.Cascade,
	}).
	AddIndex("calendar_calendar_write_user_user", false, writeUserUser)

// EventsTable holds calendar events. seq keeps insertion order.
var EventsTable = schema.NewTable(EventTable).
	AddColumns(
		eventID,
		eventSeq,
		&schema.Column{Name: "classification", Type: schema.TypeString, Size: 16},
		eventCalendar,
		&schema.Column{Name: "transparency", Type: schema.TypeString, Size: 16},
		&schema.Column{Name: "summary", Type: schema.TypeText},
		&schema.Column{Name: "description", Type: schema.TypeText},
		&schema.Column{Name: "categories", Type: schema.TypeBlob, Nullable: true},
		&schema.Column{Name: "location", Type: schema.TypeText, Nullable: true},
		&schema.Column{Name: "status", Type: schema.TypeString, Size: 64},
		&schema.Column{Name: "organizer", Type: schema.TypeText},
		&schema.Column{Name: "attendees", Type: schema.TypeBlob, Nullable: true},
		&schema.Column{Name: "alarms", Type: schema.TypeBlob, Nullable: true},
		&schema.Column{Name: "vevent", Type: schema.TypeText},
	).
	SetPrimaryKey(eventID).
	AddForeignKey(&schema.ForeignKey{
		Symbol:     "calendar_event_calendar",
		Columns:    []*schema.Column{eventCalendar},
		RefTable:   CalendarsTable,
		RefColumns: []*schema.Column{calendarID},
		OnDelete:   schema.Cascade,
	}).
	AddIndex("calendar_event_seq", true, eventSeq).
	AddIndex("calendar_event_calendar", false, eventCalendar)

// Tables lists the tables in creation order.
var Tables = []*schema.Table{CalendarsTable, WriteUsersTable, EventsTable}

// columns maps stored fields to their columns.
var columns = map[event.Field]string{
	event.FieldID:             "id",
	event.FieldClassification: "classification",
	event.FieldCalendar:       "calendar_id",
	event.FieldTransparency:   "transparency",
	event.FieldSummary:        "summary",
	event.FieldDescription:    "description",
	event.FieldCategories:     "categories",
	event.FieldLocation:       "location",
	event.FieldStatus:         "status",
	event.FieldOrganizer:      "organizer",
	event.FieldAttendees:      "attendees",
	event.FieldAlarms:         "alarms",
	event.FieldVEvent:         "vevent",
}

// selectColumns is the column order scanEvent expects.
var selectColumns = []string{
	"id", "classification", "calendar_id", "transparency", "summary",
	"description", "categories", "location", "status", "organizer",
	"attendees", "alarms", "vevent",
}

// encoded fields are stored as msgpack blobs and cannot be searched or
// ordered on.
var encoded = map[event.Field]bool{
	event.FieldCategories: true,
	event.FieldAttendees:  true,
	event.FieldAlarms:     true,
}

// searchSchema maps predicate fields onto the event table.
var searchSchema = func() *sql.Schema {
	s := &sql.Schema{
		Table:    EventTable,
		Columns:  make(map[string]string),
		Nullable: map[string]bool{"location": true},
		Paths: map[string]sql.Path{
			event.PathCalendarOwner: {
				Column: "calendar_id",
				Table:  CalendarTable,
				Key:    "id",
				Value:  "owner",
			},
			event.PathCalendarName: {
				Column: "calendar_id",
				Table:  CalendarTable,
				Key:    "id",
				Value:  "name",
			},
			event.PathCalendarWriteUsers: {
				Column: "calendar_id",
				Table:  WriteUserTable,
				Key:    "calendar_id",
				Value:  "user_id",
				Set:    true,
			},
		},
	}
	for f, col := range columns {
		if !encoded[f] {
			s.Columns[string(f)] = col
		}
	}
	return s
}()
