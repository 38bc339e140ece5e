package eventguard

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrAccess is matched by every AccessError.
	ErrAccess = errors.New("eventguard: access denied")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("eventguard: record not found")

	// ErrIntegrity is matched by every IntegrityError.
	ErrIntegrity = errors.New("eventguard: data integrity")
)

// AccessError is returned when an operation would leave the acting user
// unable to perceive the records the operation is about, or when the
// requested ids are not all visible (or writable) to that user.
//
// Message holds the user-facing text. It is never retried.
type AccessError struct {
	Entity  string // Entity description, e.g. "Calendar Event"
	Op      Op     // Operation that was denied
	Message string // Localized message for display
}

// Error returns the error string.
func (e *AccessError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("eventguard: access denied to %s on %s", e.Op, e.Entity)
}

// Is reports whether the target error matches AccessError.
func (e *AccessError) Is(err error) bool {
	return err == ErrAccess
}

// NewAccessError returns a new AccessError.
func NewAccessError(entity string, op Op, message string) *AccessError {
	return &AccessError{Entity: entity, Op: op, Message: message}
}

// IsAccessError returns true if the error is an AccessError.
func IsAccessError(err error) bool {
	if err == nil {
		return false
	}
	var e *AccessError
	return errors.As(err, &e) || errors.Is(err, ErrAccess)
}

// IntegrityError reports a stored value that cannot be decoded or
// re-encoded, such as a malformed embedded calendar document.
type IntegrityError struct {
	Entity string // Entity type
	Field  string // Field holding the bad value
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("eventguard: integrity of %s.%s: %v", e.Entity, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches IntegrityError.
func (e *IntegrityError) Is(err error) bool {
	return err == ErrIntegrity
}

// NewIntegrityError returns a new IntegrityError.
func NewIntegrityError(entity, field string, err error) *IntegrityError {
	return &IntegrityError{Entity: entity, Field: field, Err: err}
}

// IsIntegrityError returns true if the error is an IntegrityError.
func IsIntegrityError(err error) bool {
	if err == nil {
		return false
	}
	var e *IntegrityError
	return errors.As(err, &e)
}

// NotFoundError represents an error when a record is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("eventguard: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("eventguard: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("eventguard: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ValidationError represents a validation error for field values.
type ValidationError struct {
	Name string // Field name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("eventguard: validator failed for field %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("eventguard: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// QueryError wraps a store query error with additional context.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "search", "count", "read")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("eventguard: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("eventguard: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a store mutation error with additional context.
type MutationError struct {
	Entity string // Entity type being mutated
	Op     string // Operation (e.g., "create", "write", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("eventguard: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
