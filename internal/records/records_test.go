package records

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestDeriveFlag(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		min    *float64
		max    *float64
		expect Flag
	}{
		{"inside range", "5.2", ptr(4.5), ptr(11), FlagNormal},
		{"below min", "3.9", ptr(4.5), ptr(11), FlagLow},
		{"above max", "12", ptr(4.5), ptr(11), FlagHigh},
		{"comma decimal", "12,5", ptr(4.5), ptr(11), FlagHigh},
		{"text value", "negative", ptr(0), ptr(1), FlagNormal},
		{"no bounds", "100", nil, nil, FlagNormal},
		{"only max", "140", nil, ptr(100), FlagHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, DeriveFlag(tt.value, tt.min, tt.max))
		})
	}
}

func TestAPIError_MatchesKindAndCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := error(&APIError{Kind: ErrNetwork, Op: "search", Err: cause})

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrAuth))
	assert.Contains(t, err.Error(), "search: network error")

	authErr := &APIError{Kind: ErrAuth, Op: "history", Status: 401}
	assert.True(t, IsAuth(fmt.Errorf("wrapped: %w", authErr)))
	assert.Equal(t, "history: authentication error (status 401)", authErr.Error())
}

func TestResultValue_HasReference(t *testing.T) {
	assert.True(t, ResultValue{RefMin: ptr(1), RefMax: ptr(2)}.HasReference())
	assert.False(t, ResultValue{RefMin: ptr(1)}.HasReference())
	assert.False(t, ResultValue{}.HasReference())
}
