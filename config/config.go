// Package config loads the YAML configuration of the eventguard command.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/syssam/eventguard/dialect"
	"github.com/syssam/eventguard/event"
	"github.com/syssam/eventguard/guard"
	"github.com/syssam/eventguard/i18n"
)

// Defaults.
const (
	DefaultDialect       = dialect.SQLite
	DefaultDSN           = "file:eventguard.db?_pragma=foreign_keys(1)"
	DefaultSlowThreshold = 200 * time.Millisecond
	DefaultLocale        = "en"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	// Dialect is one of sqlite, postgres or mysql. It doubles as the
	// database/sql driver name.
	Dialect string `yaml:"dialect"`
	DSN     string `yaml:"dsn"`
	// SlowThreshold is the duration above which a statement is logged as
	// slow. A negative value logs every statement.
	SlowThreshold time.Duration `yaml:"slow_threshold"`
	// Debug logs every statement and transaction boundary.
	Debug bool `yaml:"debug"`
}

// GuardConfig tunes the access guard.
type GuardConfig struct {
	InMax       int    `yaml:"in_max"`
	Description string `yaml:"description"`
	// AdminRole, when set, lifts the write rule for viewers holding it.
	AdminRole string `yaml:"admin_role,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Config is the top-level configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Guard    GuardConfig    `yaml:"guard"`
	// Locale is the BCP 47 tag used when no language is requested.
	Locale string `yaml:"locale"`
	// Labels adds or overrides messages, by language and then by key.
	Labels map[string]map[string]string `yaml:"labels,omitempty"`
	Log    LogConfig                    `yaml:"log"`
}

// Default returns the default configuration.
func Default() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.Database.Dialect == "" {
		c.Database.Dialect = DefaultDialect
	}
	if c.Database.DSN == "" && c.Database.Dialect == dialect.SQLite {
		c.Database.DSN = DefaultDSN
	}
	if c.Database.SlowThreshold == 0 {
		c.Database.SlowThreshold = DefaultSlowThreshold
	}
	if c.Guard.InMax == 0 {
		c.Guard.InMax = guard.DefaultInMax
	}
	if c.Guard.Description == "" {
		c.Guard.Description = event.Description
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !dialect.Supported(c.Database.Dialect) {
		errs = append(errs, fmt.Errorf("database.dialect: unsupported dialect %q", c.Database.Dialect))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn: required"))
	}
	if c.Guard.InMax < 0 {
		errs = append(errs, fmt.Errorf("guard.in_max: must be positive, got %d", c.Guard.InMax))
	}
	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale: %w", err))
	}
	if _, err := c.Catalog(); err != nil {
		errs = append(errs, fmt.Errorf("labels: %w", err))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Language returns the configured locale.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// Catalog builds the label catalog, falling back to the configured locale.
func (c *Config) Catalog() (*i18n.Catalog, error) {
	return i18n.New(i18n.WithFallback(c.Language()), i18n.WithMessages(c.Labels))
}

// Logger returns a logger writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, err
	}
	return level, nil
}

// Load reads the configuration at path. A missing file yields the
// defaults. The result is normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid:\n%w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path with 0600 permissions, replacing any existing
// file atomically.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".eventguard-config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
