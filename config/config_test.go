package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/syssam/eventguard/i18n"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "sqlite", cfg.Database.Dialect)
	assert.Equal(t, DefaultDSN, cfg.Database.DSN)
	assert.Equal(t, 1000, cfg.Guard.InMax)
	assert.Equal(t, "Calendar Event", cfg.Guard.Description)

	_, err = Load("")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
database:
  dialect: postgres
  dsn: postgres://localhost/calendar?sslmode=disable
  slow_threshold: 1s
  debug: true
guard:
  in_max: 500
locale: fr
labels:
  fr:
    opaque: Indisponible
log:
  level: debug
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Dialect)
	assert.Equal(t, time.Second, cfg.Database.SlowThreshold)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, 500, cfg.Guard.InMax)
	assert.Equal(t, "Calendar Event", cfg.Guard.Description)
	assert.Equal(t, language.French, cfg.Language())

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, "Indisponible", cat.Label(context.Background(), i18n.KeyOpaque))
	assert.Equal(t, "Libre", cat.Label(context.Background(), i18n.KeyTransparent))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{
			name: "unknown key",
			yaml: "databse: {}\n",
			want: []string{"field databse not found"},
		},
		{
			name: "dialect",
			yaml: "database: {dialect: oracle}\n",
			want: []string{"unsupported dialect \"oracle\"", "database.dsn: required"},
		},
		{
			name: "several",
			yaml: "guard: {in_max: -1}\nlocale: \"!!\"\nlog: {level: loud, format: xml}\n",
			want: []string{"guard.in_max", "locale:", "log.level", "unsupported format \"xml\""},
		},
		{
			name: "labels",
			yaml: "labels: {\"??\": {opaque: x}}\n",
			want: []string{"labels:"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "eventguard.yaml")
	cfg := Default()
	cfg.Database.SlowThreshold = 50 * time.Millisecond
	cfg.Labels = map[string]map[string]string{"de": {"opaque": "Blockiert"}}
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	assert.Error(t, Save(path, nil))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = LogConfig{Level: "warn", Format: "json"}
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "user", "bob")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"user":"bob"`)

	cfg.Log.Level = "loud"
	_, err = cfg.Logger(&buf)
	assert.Error(t, err)
}
