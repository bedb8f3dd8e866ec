package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrQueueClosed", ErrQueueClosed},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrVectorIndexUnavailable", ErrVectorIndexUnavailable},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrParseFailure", ErrParseFailure},
		{"ErrEmptyDocument", ErrEmptyDocument},
		{"ErrFileNotFound", ErrFileNotFound},
		{"ErrEmptyInput", ErrEmptyInput},
		{"ErrNoValidInput", ErrNoValidInput},
		{"ErrModelUnavailable", ErrModelUnavailable},
		{"ErrCardinalityMismatch", ErrCardinalityMismatch},
		{"ErrNoValidRecords", ErrNoValidRecords},
		{"ErrGeneration", ErrGeneration},
		{"ErrAnalysisParse", ErrAnalysisParse},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that no two sentinels match each other
func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrQueueClosed,
		ErrLLMUnavailable, ErrVectorIndexUnavailable, ErrUnsupportedFormat,
		ErrParseFailure, ErrEmptyDocument, ErrFileNotFound, ErrEmptyInput,
		ErrNoValidInput, ErrModelUnavailable, ErrCardinalityMismatch,
		ErrNoValidRecords, ErrGeneration, ErrAnalysisParse, ErrRateLimited,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

// TestErrors_Wrapping tests that wrapped sentinels are still detectable
func TestErrors_Wrapping(t *testing.T) {
	err := fmt.Errorf("extract report.xyz: %w", ErrUnsupportedFormat)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.False(t, errors.Is(err, ErrParseFailure))

	double := fmt.Errorf("%w: %w", ErrModelUnavailable, errors.New("connection refused"))
	assert.True(t, errors.Is(double, ErrModelUnavailable))
	assert.Contains(t, double.Error(), "connection refused")
}

// TestErrNotFound tests ErrNotFound error
func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}
