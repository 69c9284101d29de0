package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidABARouting(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"011000015", true},  // Federal Reserve Bank of Boston
		{"021000021", true},  // JPMorgan Chase
		{"121000358", true},  // Bank of America
		{"021000022", false}, // checksum off by one
		{"02100002", false},
		{"0210000210", false},
		{"02100002a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidABARouting(tt.input))
		})
	}
}

func TestValidSWIFT(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"DEUTDEFF", true},
		{"DEUTDEFF500", true},
		{"NWBKGB2L", true},
		{"deutdeff", false},
		{"DEU1DEFF", false},
		{"DEUTD3FF", false},
		{"DEUTDEF", false},
		{"DEUTDEFF50", false},
		{"DEUTDEFF5-0", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidSWIFT(tt.input))
		})
	}
}

func TestIsValidLoanTerm(t *testing.T) {
	for _, m := range []int{6, 12, 24, 36, 48, 60} {
		assert.True(t, IsValidLoanTerm(m))
	}
	for _, m := range []int{0, 1, 18, 72} {
		assert.False(t, IsValidLoanTerm(m))
	}
}
