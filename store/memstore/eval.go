package memstore

import (
	"fmt"

	"github.com/syssam/eventguard/event"
	ql "github.com/syssam/eventguard/querylanguage"
)

// resolver yields the values of a field path for one event. Single-valued
// fields yield one value; sets yield their elements.
type resolver func(path string) (vals []string, set bool, err error)

func (s *Store) resolver(e *event.Event) resolver {
	return func(path string) ([]string, bool, error) {
		switch path {
		case string(event.FieldID):
			return []string{e.ID}, false, nil
		case string(event.FieldClassification):
			return []string{string(e.Classification)}, false, nil
		case string(event.FieldCalendar):
			return []string{e.Calendar}, false, nil
		case string(event.FieldTransparency):
			return []string{string(e.Transparency)}, false, nil
		case string(event.FieldSummary):
			return []string{e.Summary}, false, nil
		case string(event.FieldDescription):
			return []string{e.Description}, false, nil
		case string(event.FieldStatus):
			return []string{e.Status}, false, nil
		case string(event.FieldOrganizer):
			return []string{e.Organizer}, false, nil
		case string(event.FieldVEvent):
			return []string{e.VEvent}, false, nil
		case string(event.FieldLocation):
			if e.Location == nil {
				return nil, false, nil
			}
			return []string{*e.Location}, false, nil
		case string(event.FieldCategories):
			return e.Categories, true, nil
		case string(event.FieldAttendees):
			return e.Attendees, true, nil
		case event.PathCalendarOwner, event.PathCalendarWriteUsers, event.PathCalendarName:
			c, ok := s.calendars[e.Calendar]
			if !ok {
				return nil, path == event.PathCalendarWriteUsers, nil
			}
			switch path {
			case event.PathCalendarOwner:
				return []string{c.Owner}, false, nil
			case event.PathCalendarName:
				return []string{c.Name}, false, nil
			default:
				return c.WriteUsers, true, nil
			}
		}
		return nil, false, fmt.Errorf("memstore: unsupported field %q", path)
	}
}

// eval evaluates p against the values supplied by r. A nil predicate
// matches.
func eval(p ql.Expr, r resolver) (bool, error) {
	switch x := p.(type) {
	case nil:
		return true, nil
	case *ql.UnaryExpr:
		ok, err := eval(x.X, r)
		return !ok, err
	case *ql.NaryExpr:
		return evalJoin(x.Op, x.Xs, r)
	case *ql.BinaryExpr:
		if x.Op == ql.OpAnd || x.Op == ql.OpOr {
			return evalJoin(x.Op, []ql.Expr{x.X, x.Y}, r)
		}
		return evalCompare(x, r)
	}
	return false, fmt.Errorf("memstore: unexpected expression %T", p)
}

func evalJoin(op ql.Op, xs []ql.Expr, r resolver) (bool, error) {
	for _, x := range xs {
		ok, err := eval(x, r)
		if err != nil {
			return false, err
		}
		if op == ql.OpAnd && !ok {
			return false, nil
		}
		if op == ql.OpOr && ok {
			return true, nil
		}
	}
	return op == ql.OpAnd, nil
}

// evalCompare compares a field with a literal. Sets match when any element
// matches; the negated operators are the complement of their positive form.
func evalCompare(x *ql.BinaryExpr, r resolver) (bool, error) {
	f, ok := x.X.(*ql.Field)
	if !ok {
		return false, fmt.Errorf("memstore: left operand of %s must be a field", x.Op)
	}
	lit, ok := x.Y.(*ql.Value)
	if !ok {
		return false, fmt.Errorf("memstore: right operand of %s must be a value", x.Op)
	}
	vals, set, err := r(f.Name)
	if err != nil {
		return false, err
	}
	switch x.Op {
	case ql.OpEQ:
		return equal(vals, set, lit.V), nil
	case ql.OpNEQ:
		return !equal(vals, set, lit.V), nil
	case ql.OpIn, ql.OpNotIn:
		list, ok := lit.V.([]any)
		if !ok {
			return false, fmt.Errorf("memstore: %s expects a list, got %T", x.Op, lit.V)
		}
		in := false
		for _, v := range list {
			if equal(vals, set, v) {
				in = true
				break
			}
		}
		return in == (x.Op == ql.OpIn), nil
	case ql.OpGT, ql.OpGTE, ql.OpLT, ql.OpLTE:
		if lit.V == nil {
			return false, nil
		}
		want := fmt.Sprint(lit.V)
		for _, v := range vals {
			if compare(x.Op, v, want) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("memstore: unsupported operator %s", x.Op)
}

func equal(vals []string, set bool, lit any) bool {
	if lit == nil {
		if set {
			return len(vals) == 0
		}
		return vals == nil
	}
	want := fmt.Sprint(lit)
	for _, v := range vals {
		if v == want {
			return true
		}
	}
	return false
}

func compare(op ql.Op, a, b string) bool {
	switch op {
	case ql.OpGT:
		return a > b
	case ql.OpGTE:
		return a >= b
	case ql.OpLT:
		return a < b
	default:
		return a <= b
	}
}
