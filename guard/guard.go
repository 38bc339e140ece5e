// Package guard wraps a store.Store with the calendar-event access rules.
//
// Searches only reach events the acting user may find. Reads fail when any
// requested id is hidden from the user, and private events the user cannot
// write come back as Free/Busy placeholders. Mutations are checked against
// the user's view of the affected ids before and after they run.
//
// The acting user is the privacy.Viewer of the context:
//
//	g := guard.New(s)
//	ctx := privacy.WithViewer(ctx, &privacy.SimpleViewer{UserID: "alice"})
//	ids, err := g.Search(ctx, ql.FieldEQ("calendar", calID), store.Page{})
//
// A context without a viewer, or carrying privacy.Allow, is unrestricted.
// The guard holds no state between calls; every check is recomputed.
package guard

import (
	"context"
	"log/slog"
	"slices"

	"github.com/syssam/eventguard"
	"github.com/syssam/eventguard/document"
	"github.com/syssam/eventguard/event"
	"github.com/syssam/eventguard/i18n"
	"github.com/syssam/eventguard/privacy"
	ql "github.com/syssam/eventguard/querylanguage"
	"github.com/syssam/eventguard/store"
)

// DefaultInMax is the default number of ids per visibility or writable-id
// query.
const DefaultInMax = 1000

// Guard is a store.Store enforcing visibility, redaction and mutation
// integrity on another store.Store.
type Guard struct {
	store       store.Store
	rules       privacy.RuleProvider
	labels      i18n.LabelProvider
	codec       document.Codec
	inMax       int
	description string
	logger      *slog.Logger
}

var _ store.Store = (*Guard)(nil)

// Option configures a Guard.
type Option func(*Guard)

// WithRules sets the record rules. Defaults to privacy.CalendarRules().
func WithRules(rules privacy.RuleProvider) Option {
	return func(g *Guard) { g.rules = rules }
}

// WithLabels sets the label provider. Defaults to the built-in catalog.
func WithLabels(labels i18n.LabelProvider) Option {
	return func(g *Guard) { g.labels = labels }
}

// WithCodec sets the embedded document codec. Defaults to document.ICal.
func WithCodec(codec document.Codec) Option {
	return func(g *Guard) { g.codec = codec }
}

// WithInMax sets the number of ids per visibility or writable-id query.
func WithInMax(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.inMax = n
		}
	}
}

// WithDescription sets the entity description used in access errors.
func WithDescription(desc string) Option {
	return func(g *Guard) { g.description = desc }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// New returns a Guard over s.
func New(s store.Store, opts ...Option) *Guard {
	g := &Guard{
		store:       s,
		rules:       privacy.CalendarRules(),
		codec:       document.ICal{},
		inMax:       DefaultInMax,
		description: event.Description,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.labels == nil {
		g.labels = i18n.MustNew()
	}
	return g
}

// Search returns the ids of the events matching p that the acting user may
// find.
func (g *Guard) Search(ctx context.Context, p ql.P, page store.Page) ([]string, error) {
	fp, err := privacy.FilterSearch(ctx, g.rules, p)
	if err != nil {
		return nil, err
	}
	g.logger.DebugContext(ctx, "filtered search", "entity", event.Entity, "predicate", predicate(fp))
	return g.store.Search(ctx, fp, page)
}

// Count returns the number of events matching p that the acting user may
// find.
func (g *Guard) Count(ctx context.Context, p ql.P) (int, error) {
	fp, err := privacy.FilterSearch(ctx, g.rules, p)
	if err != nil {
		return 0, err
	}
	return g.store.Count(ctx, fp)
}

// checkVisible fails unless every id is visible to the acting user. Ids
// are counted in chunks of inMax; an unrestricted context still fails on
// ids that do not exist.
func (g *Guard) checkVisible(ctx context.Context, op eventguard.Op, ids []string) error {
	user, _, err := privacy.Actor(ctx)
	if err != nil || len(ids) == 0 {
		return err
	}
	n := 0
	for chunk := range slices.Chunk(ids, g.inMax) {
		p, err := privacy.FilterSearch(ctx, g.rules, ql.FieldIn(string(event.FieldID), chunk...))
		if err != nil {
			return err
		}
		c, err := g.store.Count(ctx, p)
		if err != nil {
			return err
		}
		n += c
	}
	if n != len(ids) {
		return g.deny(ctx, op, user, "ids not visible", len(ids), n)
	}
	return nil
}

// writable resolves which of ids the acting user may write. A nil set means
// every id is writable.
func (g *Guard) writable(ctx context.Context, ids []string) (map[string]struct{}, error) {
	rule, err := privacy.Domain(ctx, g.rules, event.Entity, privacy.ModeWrite)
	if err != nil || rule == nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for chunk := range slices.Chunk(ids, g.inMax) {
		p := ql.And(ql.FieldIn(string(event.FieldID), chunk...), rule)
		found, err := g.store.Search(ctx, p, store.Page{})
		if err != nil {
			return nil, err
		}
		for _, id := range found {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

// checkWritable fails unless every id is writable by the acting user.
func (g *Guard) checkWritable(ctx context.Context, op eventguard.Op, ids []string) error {
	set, err := g.writable(ctx, ids)
	if err != nil || set == nil {
		return err
	}
	if len(set) != len(ids) {
		user, _, _ := privacy.Actor(ctx)
		return g.deny(ctx, op, user, "ids not writable", len(ids), len(set))
	}
	return nil
}

func (g *Guard) deny(ctx context.Context, op eventguard.Op, user, reason string, requested, allowed int) error {
	g.logger.WarnContext(ctx, "access denied",
		"entity", event.Entity,
		"op", op.String(),
		"user", user,
		"reason", reason,
		"requested", requested,
		"allowed", allowed,
	)
	return eventguard.NewAccessError(g.description, op, g.labels.AccessError(ctx, g.description))
}

func predicate(p ql.P) string {
	if p == nil {
		return "<all>"
	}
	return p.String()
}
