package event

import (
	"fmt"

	"github.com/syssam/eventguard"
)

// Values holds field values for create and write operations.
//
// Accepted types: classification (Classification or string), calendar
// (string), transparency (Transparency or string), summary, description,
// status, organizer and vevent (string), categories and attendees
// ([]string), location (string, *string or nil), alarms ([]Alarm).
type Values map[Field]any

// Fields returns the fields set in v.
func (v Values) Fields() []Field {
	fs := make([]Field, 0, len(v))
	for _, f := range AllFields {
		if _, ok := v[f]; ok {
			fs = append(fs, f)
		}
	}
	return fs
}

// Validate checks every value against its field type without applying it.
func (v Values) Validate() error {
	var e Event
	return v.Apply(&e)
}

// Apply validates v and assigns it onto e, marking the fields as loaded.
func (v Values) Apply(e *Event) error {
	for f, val := range v {
		if err := apply(e, f, val); err != nil {
			return eventguard.NewValidationError(string(f), err)
		}
		e.Mark(f)
	}
	return nil
}

func apply(e *Event, f Field, val any) error {
	switch f {
	case FieldID:
		return fmt.Errorf("field is immutable")
	case FieldClassification:
		c, err := enum[Classification](val)
		if err != nil {
			return err
		}
		if !c.Valid() {
			return fmt.Errorf("unknown classification %q", c)
		}
		e.Classification = c
	case FieldTransparency:
		t, err := enum[Transparency](val)
		if err != nil {
			return err
		}
		if !t.Valid() {
			return fmt.Errorf("unknown transparency %q", t)
		}
		e.Transparency = t
	case FieldCalendar:
		s, err := text(val)
		if err != nil {
			return err
		}
		if s == "" {
			return fmt.Errorf("calendar is required")
		}
		e.Calendar = s
	case FieldSummary:
		return assign(&e.Summary, val)
	case FieldDescription:
		return assign(&e.Description, val)
	case FieldStatus:
		return assign(&e.Status, val)
	case FieldOrganizer:
		return assign(&e.Organizer, val)
	case FieldVEvent:
		return assign(&e.VEvent, val)
	case FieldCategories:
		return assignList(&e.Categories, val)
	case FieldAttendees:
		return assignList(&e.Attendees, val)
	case FieldLocation:
		switch l := val.(type) {
		case nil:
			e.Location = nil
		case string:
			e.Location = &l
		case *string:
			if l == nil {
				e.Location = nil
			} else {
				loc := *l
				e.Location = &loc
			}
		default:
			return fmt.Errorf("unexpected type %T", val)
		}
	case FieldAlarms:
		switch a := val.(type) {
		case nil:
			e.Alarms = nil
		case []Alarm:
			e.Alarms = append([]Alarm(nil), a...)
		default:
			return fmt.Errorf("unexpected type %T", val)
		}
	default:
		return fmt.Errorf("unknown field")
	}
	return nil
}

func enum[T ~string](val any) (T, error) {
	switch v := val.(type) {
	case T:
		return v, nil
	case string:
		return T(v), nil
	}
	return "", fmt.Errorf("unexpected type %T", val)
}

func text(val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type %T", val)
	}
	return s, nil
}

func assign(dst *string, val any) error {
	s, err := text(val)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func assignList(dst *[]string, val any) error {
	switch l := val.(type) {
	case nil:
		*dst = nil
	case []string:
		*dst = append([]string(nil), l...)
	default:
		return fmt.Errorf("unexpected type %T", val)
	}
	return nil
}

// New builds a record for creation: defaults first (public, opaque), then
// v. The calendar is required.
func New(id string, v Values) (*Event, error) {
	e := &Event{ID: id, Classification: Public, Transparency: Opaque}
	e.Mark(FieldID)
	e.Mark(AllFields...)
	if err := v.Apply(e); err != nil {
		return nil, err
	}
	if e.Calendar == "" {
		return nil, eventguard.NewValidationError(string(FieldCalendar), fmt.Errorf("calendar is required"))
	}
	return e, nil
}
