package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/eventguard/dialect"
)

// Migrate creates tables on a database.
type Migrate struct {
	drv    dialect.Driver
	logger *slog.Logger
}

// MigrateOption allows configuring Migrate.
type MigrateOption func(*Migrate)

// WithLogger sets the logger reporting created tables.
func WithLogger(l *slog.Logger) MigrateOption {
	return func(m *Migrate) { m.logger = l }
}

// NewMigrate returns a Migrate for drv.
func NewMigrate(drv dialect.Driver, opts ...MigrateOption) *Migrate {
	m := &Migrate{drv: drv, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates the tables and creates the missing ones in a single
// transaction. Referenced tables must come first.
func (m *Migrate) Create(ctx context.Context, tables ...*Table) error {
	if res := ValidateSchema(tables); res.HasErrors() {
		return fmt.Errorf("sql/schema: invalid schema:\n%s", res)
	}
	tx, err := m.drv.Tx(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		for _, stmt := range CreateStatements(m.drv.Dialect(), t) {
			if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					err = fmt.Errorf("%w: %v", err, rerr)
				}
				return fmt.Errorf("sql/schema: create %q: %w", t.Name, err)
			}
		}
		m.logger.DebugContext(ctx, "table ready", "table", t.Name)
	}
	return tx.Commit()
}
