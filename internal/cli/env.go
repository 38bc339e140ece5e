package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/syssam/eventguard/config"
	"github.com/syssam/eventguard/dialect"
	"github.com/syssam/eventguard/dialect/sql"
	"github.com/syssam/eventguard/guard"
	"github.com/syssam/eventguard/i18n"
	"github.com/syssam/eventguard/privacy"
	"github.com/syssam/eventguard/store/sqlstore"

	// Database drivers, registered under the dialect names.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// env is the wiring shared by the commands of one invocation.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.Driver
	stats  *sql.StatsDriver
	store  *sqlstore.Store
	guard  *guard.Guard
}

func openEnv(cmd *cobra.Command, opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	db, err := sql.Open(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if cfg.Database.Dialect == dialect.SQLite {
		// A single connection keeps in-memory databases and transactions
		// consistent.
		db.DB().SetMaxOpenConns(1)
	}
	stats := sql.NewStatsDriver(db,
		sql.WithSlowThreshold(cfg.Database.SlowThreshold),
		sql.WithStatsLogger(logger),
	)
	var drv dialect.Driver = stats
	if cfg.Database.Debug {
		drv = sql.NewDebugDriver(stats, logger)
	}
	labels, err := cfg.Catalog()
	if err != nil {
		db.Close()
		return nil, WrapExitError(ExitCommandError, "failed to build labels", err)
	}
	var rules privacy.RuleProvider = privacy.CalendarRules()
	if cfg.Guard.AdminRole != "" {
		rules = privacy.Rules{privacy.AllowRole(cfg.Guard.AdminRole), rules}
	}
	s := sqlstore.New(drv, sqlstore.WithLogger(logger))
	g := guard.New(s,
		guard.WithRules(rules),
		guard.WithLabels(labels),
		guard.WithInMax(cfg.Guard.InMax),
		guard.WithDescription(cfg.Guard.Description),
		guard.WithLogger(logger),
	)
	return &env{cfg: cfg, logger: logger, db: db, stats: stats, store: s, guard: g}, nil
}

func (e *env) Close() error {
	e.logger.Debug("query stats", "stats", e.stats.QueryStats().Stats())
	return e.db.Close()
}

// context returns the context of the acting user.
func (o *RootOptions) context(cmd *cobra.Command) (context.Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Lang != "" {
		tag, err := language.Parse(o.Lang)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid language %q", o.Lang), err)
		}
		ctx = i18n.WithLanguage(ctx, tag)
	}
	if o.User != "" {
		ctx = privacy.WithViewer(ctx, &privacy.SimpleViewer{UserID: o.User, Roles: o.Roles})
	}
	return ctx, nil
}

// run opens the environment, runs fn as the acting user and reports its
// error through the output formatter.
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, e *env, out *OutputFormatter) error) error {
	out := &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
	ctx, err := o.context(cmd)
	if err != nil {
		return err
	}
	e, err := openEnv(cmd, o)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil {
			e.logger.Error("closing database", "error", cerr)
		}
	}()
	if err := fn(ctx, e, out); err != nil {
		return out.Error(err)
	}
	return nil
}
