// The privacy layer decides what the acting user may find and change.
//
// # Viewer
//
// The acting user travels in the context:
//
//	ctx = privacy.WithViewer(ctx, &privacy.SimpleViewer{UserID: "alice"})
//
// A context without a viewer, or one carrying the system decision, is
// unrestricted:
//
//	ctx = privacy.DecisionContext(ctx, privacy.Allow)
//
// # Record rules
//
// A RuleProvider yields, per entity and mode, a predicate the records
// must satisfy. Rules combines providers with AND; a provider may return
// Skip to abstain or Allow to lift the rule:
//
//	rules := privacy.Rules{
//	    privacy.AllowRole("admin"),
//	    privacy.CalendarRules(),
//	}
//
// # Visibility
//
// FilterSearch adds the confidential-exclusion condition (and the read
// rule) to a search predicate:
//
//	p, err := privacy.FilterSearch(ctx, rules, p)
//
// The result is
//
//	p && ((classification == "confidential" && (calendar.owner == U || calendar.write_users == U)) || classification != "confidential")
package privacy
