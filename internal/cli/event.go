package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/syssam/eventguard/document"
	"github.com/syssam/eventguard/event"
	ql "github.com/syssam/eventguard/querylanguage"
	"github.com/syssam/eventguard/store"
)

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Search, read and modify events as the acting user",
	}
	cmd.AddCommand(newEventCreateCommand(rootOpts))
	cmd.AddCommand(newEventSearchCommand(rootOpts))
	cmd.AddCommand(newEventReadCommand(rootOpts))
	cmd.AddCommand(newEventWriteCommand(rootOpts))
	cmd.AddCommand(newEventDeleteCommand(rootOpts))
	return cmd
}

// valueFlags are the event fields settable from the command line.
type valueFlags struct {
	calendar       string
	classification string
	transparency   string
	summary        string
	description    string
	location       string
	clearLocation  bool
	status         string
	organizer      string
	categories     []string
	attendees      []string
	alarms         []string
}

func (v *valueFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&v.calendar, "calendar", "", "calendar id")
	f.StringVar(&v.classification, "classification", "", "public, private or confidential")
	f.StringVar(&v.transparency, "transparency", "", "opaque or transparent")
	f.StringVar(&v.summary, "summary", "", "summary")
	f.StringVar(&v.description, "description", "", "description")
	f.StringVar(&v.location, "location", "", "location")
	f.BoolVar(&v.clearLocation, "clear-location", false, "remove the location")
	f.StringVar(&v.status, "status", "", "status, e.g. CONFIRMED")
	f.StringVar(&v.organizer, "organizer", "", "organizer address")
	f.StringSliceVar(&v.categories, "category", nil, "categories")
	f.StringSliceVar(&v.attendees, "attendee", nil, "attendee addresses")
	f.StringSliceVar(&v.alarms, "alarm", nil, "display alarm triggers, e.g. -PT15M")
}

// values returns the fields whose flags were set.
func (v *valueFlags) values(cmd *cobra.Command) event.Values {
	changed := cmd.Flags().Changed
	values := event.Values{}
	set := func(flag string, f event.Field, val any) {
		if changed(flag) {
			values[f] = val
		}
	}
	set("calendar", event.FieldCalendar, v.calendar)
	set("classification", event.FieldClassification, v.classification)
	set("transparency", event.FieldTransparency, v.transparency)
	set("summary", event.FieldSummary, v.summary)
	set("description", event.FieldDescription, v.description)
	set("location", event.FieldLocation, v.location)
	if v.clearLocation {
		values[event.FieldLocation] = nil
	}
	set("status", event.FieldStatus, v.status)
	set("organizer", event.FieldOrganizer, v.organizer)
	set("category", event.FieldCategories, v.categories)
	set("attendee", event.FieldAttendees, v.attendees)
	if changed("alarm") {
		alarms := make([]event.Alarm, len(v.alarms))
		for i, trigger := range v.alarms {
			alarms[i] = event.Alarm{Action: "DISPLAY", Trigger: trigger}
		}
		values[event.FieldAlarms] = alarms
	}
	return values
}

// withDocument adds the iCalendar document mirroring values.
func withDocument(values event.Values, now time.Time) (event.Values, error) {
	e, err := event.New(uuid.NewString(), values)
	if err != nil {
		return nil, err
	}
	vevent, err := document.ICal{}.Serialize(document.FromEvent(e, now))
	if err != nil {
		return nil, err
	}
	values[event.FieldVEvent] = vevent
	return values, nil
}

func newEventCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var v valueFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		Long: `Create an event with its iCalendar document.

The command fails, leaving nothing behind, when the acting user could not
find the new event.

Example:
  eventguard --user alice event create --calendar cal-1 --summary Dentist --classification private`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				values, err := withDocument(v.values(cmd), time.Now().UTC())
				if err != nil {
					return err
				}
				var id string
				err = e.store.Tx(ctx, func(ctx context.Context) error {
					id, err = e.guard.Create(ctx, values)
					return err
				})
				if err != nil {
					return err
				}
				return out.Success(map[string]string{"id": id}, func(w io.Writer) {
					fmt.Fprintln(w, id)
				})
			})
		},
	}
	v.register(cmd)
	_ = cmd.MarkFlagRequired("calendar")
	return cmd
}

func newEventSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		calendar, classification, summary string
		page                              store.Page
		order                             []string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List the ids of matching events",
		Long: `List the ids of the events matching the filters that the acting user may find.

--order takes field names, suffixed with :desc for descending order.

Example:
  eventguard --user bob event search --calendar cal-1 --order summary:desc --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ps []ql.P
			if calendar != "" {
				ps = append(ps, ql.FieldEQ(string(event.FieldCalendar), calendar))
			}
			if classification != "" {
				ps = append(ps, ql.FieldEQ(string(event.FieldClassification), classification))
			}
			if summary != "" {
				ps = append(ps, ql.FieldEQ(string(event.FieldSummary), summary))
			}
			page.Order = parseOrder(order)
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				p := ql.And(ps...)
				ids, err := e.guard.Search(ctx, p, page)
				if err != nil {
					return err
				}
				total, err := e.guard.Count(ctx, p)
				if err != nil {
					return err
				}
				return out.Success(map[string]any{"ids": ids, "total": total}, func(w io.Writer) {
					for _, id := range ids {
						fmt.Fprintln(w, id)
					}
					fmt.Fprintf(w, "(%d of %d)\n", len(ids), total)
				})
			})
		},
	}
	cmd.Flags().StringVar(&calendar, "calendar", "", "calendar id")
	cmd.Flags().StringVar(&classification, "classification", "", "classification")
	cmd.Flags().StringVar(&summary, "summary", "", "exact summary")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "number of results to skip")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "maximum number of results (0 for all)")
	cmd.Flags().StringSliceVar(&order, "order", nil, "sort fields")
	return cmd
}

func parseOrder(specs []string) []store.Order {
	var orders []store.Order
	for _, s := range specs {
		name, dir, _ := strings.Cut(s, ":")
		orders = append(orders, store.Order{Field: event.Field(name), Desc: strings.EqualFold(dir, "desc")})
	}
	return orders
}

func newEventReadCommand(rootOpts *RootOptions) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "read <id>...",
		Short: "Read events",
		Long: `Read events as the acting user.

The command fails when any id is hidden from the user. Private events the
user cannot write are shown as Free/Busy.

Example:
  eventguard --user bob --lang fr event read 3f2a... --field summary --field calendar.display_name`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fs []event.Field
			for _, f := range fields {
				fs = append(fs, event.Field(f))
			}
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				evs, err := e.guard.Read(ctx, args, fs)
				if err != nil {
					return err
				}
				return out.Success(evs, func(w io.Writer) {
					for _, ev := range evs {
						printEvent(w, ev)
					}
				})
			})
		},
	}
	cmd.Flags().StringSliceVar(&fields, "field", nil, "fields to read (all when omitted)")
	return cmd
}

func printEvent(w io.Writer, e *event.Event) {
	fmt.Fprintln(w, e.ID)
	for _, f := range e.Fields() {
		if f == event.FieldID || f == event.FieldVEvent {
			continue
		}
		switch v := e.Get(f).(type) {
		case *string:
			if v != nil {
				fmt.Fprintf(w, "  %s: %s\n", f, *v)
			}
		case []string:
			fmt.Fprintf(w, "  %s: %s\n", f, strings.Join(v, ", "))
		case []event.Alarm:
			for _, a := range v {
				fmt.Fprintf(w, "  %s: %s %s\n", f, a.Action, a.Trigger)
			}
		default:
			fmt.Fprintf(w, "  %s: %v\n", f, v)
		}
	}
}

func newEventWriteCommand(rootOpts *RootOptions) *cobra.Command {
	var v valueFlags
	cmd := &cobra.Command{
		Use:   "write <id>...",
		Short: "Update events",
		Long: `Update the given fields of events.

The update is rolled back when it would hide an event from the acting user.

Example:
  eventguard --user alice event write 3f2a... --summary "Dentist (moved)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := v.values(cmd)
			if len(values) == 0 {
				return WrapExitError(ExitCommandError, "nothing to write", nil)
			}
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				err := e.store.Tx(ctx, func(ctx context.Context) error {
					return e.guard.Write(ctx, args, values)
				})
				if err != nil {
					return err
				}
				return out.Success(map[string]any{"ids": args, "fields": values.Fields()}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ updated %d event(s)\n", len(store.Distinct(args)))
				})
			})
		},
	}
	v.register(cmd)
	return cmd
}

func newEventDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete events",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				err := e.store.Tx(ctx, func(ctx context.Context) error {
					return e.guard.Delete(ctx, args)
				})
				if err != nil {
					return err
				}
				return out.Success(map[string]any{"ids": args}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ deleted %d event(s)\n", len(store.Distinct(args)))
				})
			})
		},
	}
}
