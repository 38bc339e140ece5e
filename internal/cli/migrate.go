package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/eventguard/config"
	"github.com/syssam/eventguard/store/sqlstore"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the calendar and event tables",
		Long: `Create the calendar and event tables in the configured database.

Existing tables are left untouched, so the command is safe to run again.

Example:
  eventguard migrate --config ./eventguard.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, e *env, out *OutputFormatter) error {
				if err := e.store.Migrate(ctx); err != nil {
					return err
				}
				tables := make([]string, len(sqlstore.Tables))
				for i, t := range sqlstore.Tables {
					tables[i] = t.Name
				}
				return out.Success(map[string]any{"tables": tables}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ %d tables ready on %s\n", len(tables), e.cfg.Database.Dialect)
				})
			})
		},
	}
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if err := config.Save(rootOpts.ConfigPath, config.Default()); err != nil {
				return WrapExitError(ExitCommandError, "failed to write configuration", err)
			}
			return out.Success(map[string]string{"path": rootOpts.ConfigPath}, func(w io.Writer) {
				fmt.Fprintf(w, "✓ wrote %s\n", rootOpts.ConfigPath)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(cfg, func(w io.Writer) {
				fmt.Fprintf(w, "dialect: %s\n", cfg.Database.Dialect)
				fmt.Fprintf(w, "locale:  %s\n", cfg.Locale)
				fmt.Fprintf(w, "in_max:  %d\n", cfg.Guard.InMax)
			})
		},
	})
	return cmd
}
