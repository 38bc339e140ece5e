package privacy

import (
	"context"

	"github.com/syssam/eventguard/event"
	ql "github.com/syssam/eventguard/querylanguage"
)

// Visible returns the visibility condition for user: confidential events
// only when user owns or may write their calendar, every other
// classification unconditionally.
func Visible(user string) ql.P {
	confidential := string(event.Confidential)
	return ql.Or(
		ql.And(
			ql.FieldEQ(string(event.FieldClassification), confidential),
			OwnerOrWriter(user),
		),
		ql.FieldNEQ(string(event.FieldClassification), confidential),
	)
}

// FilterSearch restricts p to the events the acting user may find. The
// read rule of rules, when set, is AND-ed in as well. Without an acting
// user p is returned unchanged.
func FilterSearch(ctx context.Context, rules RuleProvider, p ql.P) (ql.P, error) {
	user, restricted, err := Actor(ctx)
	if err != nil {
		return nil, err
	}
	if !restricted {
		return p, nil
	}
	read, err := Domain(ctx, rules, event.Entity, ModeRead)
	if err != nil {
		return nil, err
	}
	return ql.And(p, read, Visible(user)), nil
}
