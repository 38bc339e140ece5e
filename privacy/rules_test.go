package privacy_test

import (
	"context"
	"testing"

	"github.com/syssam/eventguard/event"
	"github.com/syssam/eventguard/privacy"
	ql "github.com/syssam/eventguard/querylanguage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarRules(t *testing.T) {
	rules := privacy.CalendarRules()
	alice := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "alice"})

	tests := []struct {
		name   string
		ctx    context.Context
		entity string
		mode   privacy.Mode
		want   string
	}{
		{name: "write", ctx: alice, entity: event.Entity, mode: privacy.ModeWrite, want: `calendar.owner == "alice" || calendar.write_users == "alice"`},
		{name: "read", ctx: alice, entity: event.Entity, mode: privacy.ModeRead},
		{name: "other entity", ctx: alice, entity: "calendar.calendar", mode: privacy.ModeWrite},
		{name: "no viewer", ctx: context.Background(), entity: event.Entity, mode: privacy.ModeWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := privacy.Domain(tt.ctx, rules, tt.entity, tt.mode)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestRules(t *testing.T) {
	status := privacy.RuleFunc(func(context.Context, string, privacy.Mode) (ql.P, error) {
		return ql.FieldNEQ("status", "cancelled"), nil
	})
	rules := privacy.Rules{privacy.AllowRole("admin"), privacy.CalendarRules(), status}

	t.Run("and", func(t *testing.T) {
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "bob"})
		p, err := rules.Domain(ctx, event.Entity, privacy.ModeWrite)
		require.NoError(t, err)
		assert.Equal(t, `(calendar.owner == "bob" || calendar.write_users == "bob") && status != "cancelled"`, p.String())
	})
	t.Run("skip", func(t *testing.T) {
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "bob"})
		p, err := rules.Domain(ctx, event.Entity, privacy.ModeRead)
		require.NoError(t, err)
		assert.Equal(t, `status != "cancelled"`, p.String())
	})
	t.Run("allow role", func(t *testing.T) {
		ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "root", Roles: []string{"admin"}})
		p, err := rules.Domain(ctx, event.Entity, privacy.ModeWrite)
		require.NoError(t, err)
		assert.Nil(t, p)
	})
	t.Run("decision", func(t *testing.T) {
		ctx := privacy.DecisionContext(context.Background(), privacy.Deny)
		_, err := rules.Domain(ctx, event.Entity, privacy.ModeWrite)
		assert.ErrorIs(t, err, privacy.Deny)
	})
	t.Run("nil provider", func(t *testing.T) {
		p, err := privacy.Domain(context.Background(), nil, event.Entity, privacy.ModeWrite)
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "read", privacy.ModeRead.String())
	assert.Equal(t, "write", privacy.ModeWrite.String())
	assert.Equal(t, "unknown", privacy.Mode(0).String())
}
