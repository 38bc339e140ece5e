package guard

import (
	"context"

	"github.com/syssam/eventguard"
	"github.com/syssam/eventguard/event"
	"github.com/syssam/eventguard/privacy"
	"github.com/syssam/eventguard/store"
)

// Create stores a new event and fails with an AccessError when the acting
// user cannot find it afterwards. The event is not removed
// by the guard; run the call in a transaction to discard it.
func (g *Guard) Create(ctx context.Context, values event.Values) (string, error) {
	id, err := g.store.Create(ctx, values)
	if err != nil {
		return "", err
	}
	if err := g.checkVisible(ctx, eventguard.OpCreate, []string{id}); err != nil {
		g.warnApplied(ctx, eventguard.OpCreate, 1)
		return "", err
	}
	return id, nil
}

// Write applies values to the events in ids. It fails without writing when
// the acting user cannot see or write every id, and fails after writing
// when the write hid some of them from the user.
func (g *Guard) Write(ctx context.Context, ids []string, values event.Values) error {
	ids = store.Distinct(ids)
	if err := g.checkMutable(ctx, eventguard.OpWrite, ids); err != nil {
		return err
	}
	if err := g.store.Write(ctx, ids, values); err != nil {
		return err
	}
	if err := g.checkVisible(ctx, eventguard.OpWrite, ids); err != nil {
		g.warnApplied(ctx, eventguard.OpWrite, len(ids))
		return err
	}
	return nil
}

// Delete removes the events in ids. It fails without deleting when the
// acting user cannot see or write every id.
func (g *Guard) Delete(ctx context.Context, ids []string) error {
	ids = store.Distinct(ids)
	if err := g.checkMutable(ctx, eventguard.OpDelete, ids); err != nil {
		return err
	}
	return g.store.Delete(ctx, ids)
}

func (g *Guard) checkMutable(ctx context.Context, op eventguard.Op, ids []string) error {
	if err := g.checkVisible(ctx, op, ids); err != nil {
		return err
	}
	return g.checkWritable(ctx, op, ids)
}

// warnApplied reports a mutation that reached the store before it was
// denied.
func (g *Guard) warnApplied(ctx context.Context, op eventguard.Op, n int) {
	user, _, _ := privacy.Actor(ctx)
	g.logger.WarnContext(ctx, "mutation applied before denial; the enclosing transaction must roll back",
		"entity", event.Entity,
		"op", op.String(),
		"user", user,
		"count", n,
	)
}
