package event

import "strings"

// Field names a stored event field, or a "<field>.display_name" companion.
type Field string

// Event fields.
const (
	FieldID             Field = "id"
	FieldClassification Field = "classification"
	FieldCalendar       Field = "calendar"
	FieldTransparency   Field = "transparency"
	FieldSummary        Field = "summary"
	FieldDescription    Field = "description"
	FieldCategories     Field = "categories"
	FieldLocation       Field = "location"
	FieldStatus         Field = "status"
	FieldOrganizer      Field = "organizer"
	FieldAttendees      Field = "attendees"
	FieldAlarms         Field = "alarms"
	FieldVEvent         Field = "vevent"
)

// Paths into the related calendar, usable in predicates.
const (
	PathCalendarOwner      = "calendar.owner"
	PathCalendarWriteUsers = "calendar.write_users"
	PathCalendarName       = "calendar.name"
)

const displaySuffix = ".display_name"

// AllFields lists every stored field except id, in declaration order.
var AllFields = []Field{
	FieldClassification,
	FieldCalendar,
	FieldTransparency,
	FieldSummary,
	FieldDescription,
	FieldCategories,
	FieldLocation,
	FieldStatus,
	FieldOrganizer,
	FieldAttendees,
	FieldAlarms,
	FieldVEvent,
}

// displayable fields carry a denormalized text companion.
var displayable = map[Field]bool{
	FieldCalendar:   true,
	FieldCategories: true,
	FieldLocation:   true,
	FieldOrganizer:  true,
	FieldAttendees:  true,
}

// DisplayName returns the companion field "<f>.display_name".
func (f Field) DisplayName() Field {
	return f + displaySuffix
}

// IsDisplayName reports whether f is a display-name companion.
func (f Field) IsDisplayName() bool {
	return strings.HasSuffix(string(f), displaySuffix)
}

// Base returns the field a display-name companion belongs to.
func (f Field) Base() Field {
	return Field(strings.TrimSuffix(string(f), displaySuffix))
}

// Known reports whether f is a stored field or a supported companion.
func (f Field) Known() bool {
	if f == FieldID {
		return true
	}
	if f.IsDisplayName() {
		return displayable[f.Base()]
	}
	for _, k := range AllFields {
		if k == f {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (f Field) String() string { return string(f) }
