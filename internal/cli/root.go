// Package cli implements the eventguard command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	User       string
	Roles      []string
	Lang       string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "eventguard",
		Short: "Access-controlled calendar events",
		Long: `Manage calendar events through the access guard.

Every event command acts as the user given with --user: confidential events
of other users' calendars are hidden, and private events the user cannot
write are shown as Free/Busy. Without --user commands run unrestricted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "eventguard.yaml", "path to the YAML configuration")
	cmd.PersistentFlags().StringVarP(&opts.User, "user", "u", "", "acting user (unrestricted when empty)")
	cmd.PersistentFlags().StringSliceVar(&opts.Roles, "role", nil, "roles of the acting user")
	cmd.PersistentFlags().StringVar(&opts.Lang, "lang", "", "language of labels and messages (BCP 47)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewCalendarCommand(opts))
	cmd.AddCommand(NewEventCommand(opts))

	return cmd
}
