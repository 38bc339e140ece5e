// Package eventguard enforces per-record visibility and field-level
// redaction on a calendar-event store shared by multiple users.
//
// The access-control layer lives in the guard package and wraps any
// store.Store. This package holds the error kinds and operation names
// shared by every layer.
package eventguard

// Op represents the operation performed on a record set.
type Op uint

// Operations. Mutations are bit flags so they can be combined in masks.
const (
	OpCreate Op = 1 << iota
	OpWrite
	OpDelete
	OpRead
	OpSearch
)

// OpMutation matches every mutating operation.
const OpMutation = OpCreate | OpWrite | OpDelete

// Is reports whether o matches the given operation (or mask).
func (o Op) Is(op Op) bool { return o&op != 0 }

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	case OpRead:
		return "read"
	case OpSearch:
		return "search"
	default:
		return "unknown"
	}
}
