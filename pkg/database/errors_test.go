package database

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsSchemaMissing(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "undefined table",
			err:      &pq.Error{Code: "42P01", Message: `relation "trade_bids" does not exist`},
			expected: true,
		},
		{
			name:     "undefined column",
			err:      &pq.Error{Code: "42703", Message: `column "is_low" does not exist`},
			expected: true,
		},
		{
			name:     "wrapped undefined table",
			err:      errors.Wrap(&pq.Error{Code: "42P01"}, "failed to list trade bids"),
			expected: true,
		},
		{
			name:     "unique violation is not schema missing",
			err:      &pq.Error{Code: "23505"},
			expected: false,
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("connection refused"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSchemaMissing(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "42P01"}))
	assert.False(t, IsUniqueViolation(nil))
}
