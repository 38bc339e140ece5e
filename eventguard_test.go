package eventguard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/eventguard"
)

func TestOp(t *testing.T) {
	tests := []struct {
		op       eventguard.Op
		name     string
		mutation bool
	}{
		{eventguard.OpCreate, "create", true},
		{eventguard.OpWrite, "write", true},
		{eventguard.OpDelete, "delete", true},
		{eventguard.OpRead, "read", false},
		{eventguard.OpSearch, "search", false},
		{eventguard.Op(0), "unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.op.String())
			assert.Equal(t, tt.mutation, tt.op.Is(eventguard.OpMutation))
		})
	}
	assert.True(t, eventguard.OpRead.Is(eventguard.OpRead|eventguard.OpSearch))
	assert.False(t, eventguard.OpMutation.Is(eventguard.OpRead))
}
