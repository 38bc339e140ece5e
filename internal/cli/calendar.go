package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/eventguard/event"
)

// NewCalendarCommand creates the calendar command group. Calendars are not
// guarded; the commands act on the store directly.
func NewCalendarCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Manage calendars",
	}
	cmd.AddCommand(newCalendarCreateCommand(rootOpts))
	cmd.AddCommand(newCalendarShowCommand(rootOpts))
	cmd.AddCommand(newCalendarWritersCommand(rootOpts))
	return cmd
}

func newCalendarCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var c event.Calendar
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a calendar",
		Long: `Create a calendar owned by --owner.

Example:
  eventguard calendar create --name Team --owner alice --write-user bob`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				id, err := e.store.CreateCalendar(ctx, &c)
				if err != nil {
					return err
				}
				return out.Success(map[string]string{"id": id}, func(w io.Writer) {
					fmt.Fprintln(w, id)
				})
			})
		},
	}
	cmd.Flags().StringVar(&c.ID, "id", "", "calendar id (generated when empty)")
	cmd.Flags().StringVar(&c.Name, "name", "", "calendar name")
	cmd.Flags().StringVar(&c.Owner, "owner", "", "owning user (required)")
	cmd.Flags().StringSliceVar(&c.WriteUsers, "write-user", nil, "users allowed to write the calendar's events")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newCalendarShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				c, err := e.store.Calendar(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Success(c, func(w io.Writer) {
					fmt.Fprintf(w, "%s\t%s\towner=%s\twriters=%s\n", c.ID, c.Name, c.Owner, strings.Join(c.WriteUsers, ","))
				})
			})
		},
	}
}

func newCalendarWritersCommand(rootOpts *RootOptions) *cobra.Command {
	var users []string
	cmd := &cobra.Command{
		Use:   "set-writers <id>",
		Short: "Replace the write users of a calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				if err := e.store.SetWriteUsers(ctx, args[0], users); err != nil {
					return err
				}
				return out.Success(map[string]any{"id": args[0], "write_users": users}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ %s writers: %s\n", args[0], strings.Join(users, ","))
				})
			})
		},
	}
	cmd.Flags().StringSliceVar(&users, "write-user", nil, "users allowed to write the calendar's events")
	return cmd
}
