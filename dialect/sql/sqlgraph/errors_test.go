package sqlgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/syssam/eventguard"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Constraint
	}{
		{name: "nil", err: nil, want: NoConstraint},
		{name: "plain", err: errors.New("connection refused"), want: NoConstraint},
		{name: "pq unique", err: &pq.Error{Code: "23505"}, want: Unique},
		{name: "pq fk wrapped", err: fmt.Errorf("dialect/sql: exec: %w", &pq.Error{Code: "23503"}), want: ForeignKey},
		{name: "pq other", err: &pq.Error{Code: "42P01"}, want: NoConstraint},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, want: Unique},
		{name: "mysql child row", err: &mysql.MySQLError{Number: 1452}, want: ForeignKey},
		{name: "mysql check", err: &mysql.MySQLError{Number: 3819}, want: Check},
		{name: "sqlite unique text", err: errors.New("constraint failed: UNIQUE constraint failed: calendar_event.id (2067)"), want: Unique},
		{name: "sqlite fk text", err: errors.New("FOREIGN KEY constraint failed"), want: ForeignKey},
		{name: "sqlite not null text", err: errors.New("NOT NULL constraint failed: calendar_event.calendar_id"), want: NotNull},
		{name: "postgres check text", err: errors.New(`new row violates check constraint "classification_check"`), want: Check},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.want != NoConstraint, IsConstraintError(tt.err))
		})
	}
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsUniqueConstraintError(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueConstraintError(&pq.Error{Code: "23503"}))
	assert.True(t, IsForeignKeyConstraintError(&mysql.MySQLError{Number: 1451}))
	assert.Equal(t, "foreign key", ForeignKey.String())
	assert.Equal(t, "unknown", Constraint(42).String())
}

func TestWrap(t *testing.T) {
	cause := &pq.Error{Code: "23505"}
	err := Wrap(cause)
	assert.True(t, eventguard.IsConstraintError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unique constraint failed")

	plain := errors.New("timeout")
	assert.Same(t, plain, Wrap(plain))
	assert.Nil(t, Wrap(nil))
}
