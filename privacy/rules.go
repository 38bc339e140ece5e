package privacy

import (
	"context"
	"errors"

	"github.com/syssam/eventguard/event"
	ql "github.com/syssam/eventguard/querylanguage"
)

// Mode is the access mode a record rule is asked for.
type Mode uint8

// Rule modes.
const (
	ModeRead Mode = iota + 1
	ModeWrite
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	}
	return "unknown"
}

// RuleProvider yields the record rule for an entity and mode, as a
// predicate over the entity's fields. A nil predicate means unrestricted.
type RuleProvider interface {
	Domain(ctx context.Context, entity string, mode Mode) (ql.P, error)
}

// RuleFunc type is an adapter which allows the use of ordinary functions
// as rule providers.
type RuleFunc func(context.Context, string, Mode) (ql.P, error)

// Domain returns f(ctx, entity, mode).
func (f RuleFunc) Domain(ctx context.Context, entity string, mode Mode) (ql.P, error) {
	return f(ctx, entity, mode)
}

// Rules combines providers with AND. A provider returning Skip contributes
// nothing; Allow ends evaluation with an unrestricted rule. A decision in
// the context takes precedence over every provider.
type Rules []RuleProvider

// Domain evaluates the providers in order.
func (rules Rules) Domain(ctx context.Context, entity string, mode Mode) (ql.P, error) {
	if decision, ok := DecisionFromContext(ctx); ok {
		return nil, decision
	}
	ps := make([]ql.P, 0, len(rules))
	for _, r := range rules {
		p, err := r.Domain(ctx, entity, mode)
		switch {
		case err == nil:
			ps = append(ps, p)
		case errors.Is(err, Skip):
		case errors.Is(err, Allow):
			return nil, nil
		default:
			return nil, err
		}
	}
	return ql.And(ps...), nil
}

// Domain evaluates rules for entity and mode, resolving Allow and Skip
// decisions. A nil provider is unrestricted.
func Domain(ctx context.Context, rules RuleProvider, entity string, mode Mode) (ql.P, error) {
	if rules == nil {
		return nil, nil
	}
	if rs, ok := rules.(Rules); ok {
		return rs.Domain(ctx, entity, mode)
	}
	return Rules{rules}.Domain(ctx, entity, mode)
}

// CalendarRules returns the calendar write rule: events are writable by
// the owner of their calendar and by its write users. Reads are
// unrestricted; visibility is enforced by FilterSearch instead.
func CalendarRules() RuleProvider {
	return RuleFunc(func(ctx context.Context, entity string, mode Mode) (ql.P, error) {
		if entity != event.Entity || mode != ModeWrite {
			return nil, Skip
		}
		user, restricted, err := Actor(ctx)
		if err != nil || !restricted {
			return nil, err
		}
		return OwnerOrWriter(user), nil
	})
}

// AllowRole returns a provider that lifts every rule for viewers with the
// given role.
func AllowRole(role string) RuleProvider {
	return RuleFunc(func(ctx context.Context, _ string, _ Mode) (ql.P, error) {
		if HasRole(ctx, role) {
			return nil, Allowf("eventguard/privacy: role %q", role)
		}
		return nil, Skip
	})
}

// OwnerOrWriter matches events whose calendar is owned by user or lists
// user among its write users.
func OwnerOrWriter(user string) ql.P {
	return ql.Or(
		ql.FieldEQ(event.PathCalendarOwner, user),
		ql.FieldEQ(event.PathCalendarWriteUsers, user),
	)
}
