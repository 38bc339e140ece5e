// Package sqlgraph classifies the errors SQL drivers return for constraint
// violations and converts them into eventguard errors.
package sqlgraph

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/syssam/eventguard"
)

// Constraint kinds.
type Constraint uint8

// Constraint kinds reported by Classify.
const (
	NoConstraint Constraint = iota
	Unique
	ForeignKey
	Check
	NotNull
)

var constraintNames = [...]string{
	NoConstraint: "none",
	Unique:       "unique",
	ForeignKey:   "foreign key",
	Check:        "check",
	NotNull:      "not null",
}

// String returns the constraint kind name.
func (c Constraint) String() string {
	if int(c) < len(constraintNames) {
		return constraintNames[c]
	}
	return "unknown"
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
var pgCodes = map[pq.ErrorCode]Constraint{
	"23505": Unique,
	"23503": ForeignKey,
	"23514": Check,
	"23502": NotNull,
}

// MySQL error numbers for constraint violations.
var mysqlNumbers = map[uint16]Constraint{
	1062: Unique,
	1451: ForeignKey, // Cannot delete or update a parent row
	1452: ForeignKey, // Cannot add or update a child row
	3819: Check,
	1048: NotNull,
}

// SQLite extended result codes for constraint violations.
var sqliteCodes = map[int]Constraint{
	sqlite3.SQLITE_CONSTRAINT_UNIQUE:     Unique,
	sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY: Unique,
	sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY: ForeignKey,
	sqlite3.SQLITE_CONSTRAINT_CHECK:      Check,
	sqlite3.SQLITE_CONSTRAINT_NOTNULL:    NotNull,
}

// Messages for drivers whose error types are not linked in.
var fallback = []struct {
	substr string
	kind   Constraint
}{
	{"Error 1062", Unique},
	{"violates unique constraint", Unique},
	{"UNIQUE constraint failed", Unique},
	{"Error 1451", ForeignKey},
	{"Error 1452", ForeignKey},
	{"violates foreign key constraint", ForeignKey},
	{"FOREIGN KEY constraint failed", ForeignKey},
	{"Error 3819", Check},
	{"violates check constraint", Check},
	{"CHECK constraint failed", Check},
	{"violates not-null constraint", NotNull},
	{"NOT NULL constraint failed", NotNull},
}

// Classify reports which constraint, if any, err violated.
func Classify(err error) Constraint {
	if err == nil {
		return NoConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgCodes[pqErr.Code]
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlNumbers[myErr.Number]
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if kind, ok := sqliteCodes[liteErr.Code()]; ok {
			return kind
		}
	}
	msg := err.Error()
	for _, f := range fallback {
		if strings.Contains(msg, f.substr) {
			return f.kind
		}
	}
	return NoConstraint
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return Classify(err) != NoConstraint
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	return Classify(err) == Unique
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return Classify(err) == ForeignKey
}

// Wrap converts constraint violations into eventguard.ConstraintError and
// returns other errors unchanged.
func Wrap(err error) error {
	if kind := Classify(err); kind != NoConstraint {
		return eventguard.NewConstraintError(kind.String()+" constraint failed", err)
	}
	return err
}
