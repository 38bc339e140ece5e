// Package privacy provides the acting-user context, the system decisions
// that bypass record rules, the record-rule providers and the visibility
// filter applied to every calendar-event search.
package privacy

import (
	"context"
	"errors"
	"fmt"
)

// Decision sentinel errors.
//
// Rule providers return them to short-circuit evaluation, and
// DecisionContext attaches them to a context:
//
//	if errors.Is(err, privacy.Allow) { ... }
//	if errors.Is(err, privacy.Deny) { ... }
//	if errors.Is(err, privacy.Skip) { ... }
var (
	// Allow terminates evaluation with an unrestricted decision.
	Allow = errors.New("eventguard/privacy: allow rule")

	// Deny terminates evaluation with a deny decision.
	Deny = errors.New("eventguard/privacy: deny rule")

	// Skip abstains; evaluation continues with the next provider.
	Skip = errors.New("eventguard/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a decision attached to it. DecisionContext(ctx, Allow) is the system
// context: no acting user, no visibility restriction.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the decision from the context. An Allow
// decision is reported as a nil error.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

// Actor returns the acting user of ctx. restricted is false for the system
// context and for contexts without a viewer; a Deny decision in the context
// is returned as the error.
func Actor(ctx context.Context) (user string, restricted bool, err error) {
	if decision, ok := DecisionFromContext(ctx); ok {
		return "", false, decision
	}
	v := ViewerFromContext(ctx)
	if v == nil {
		return "", false, nil
	}
	return v.GetID(), true, nil
}
