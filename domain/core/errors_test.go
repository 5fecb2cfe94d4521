package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewValidationError_Classified(t *testing.T) {
	err := NewValidationError("target", "regression requires a target column")

	if !IsValidationError(err) {
		t.Errorf("NewValidationError not recognized by IsValidationError: %v", err)
	}
	if IsComputationError(err) || IsInsufficientData(err) {
		t.Errorf("validation error misclassified: %v", err)
	}
	if got := err.Error(); got != "validation failed for target: regression requires a target column" {
		t.Errorf("message = %q", got)
	}
}

func TestNewColumnError_KeepsSentinel(t *testing.T) {
	err := NewColumnError(ErrColumnNotFound, "revenue")
	if !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("column error lost its sentinel: %v", err)
	}
	if !IsValidationError(err) {
		t.Errorf("column error not classified as validation: %v", err)
	}
}

func TestClassifiers(t *testing.T) {
	cases := []struct {
		err          error
		validation   bool
		computation  bool
		insufficient bool
	}{
		{ErrValidation, true, false, false},
		{ErrColumnNotFound, true, false, false},
		{ErrLengthMismatch, true, false, false},
		{ErrNonNumeric, true, false, false},
		{ErrNonFiniteValue, true, false, false},
		{ErrEmptyColumn, true, false, false},
		{ErrUnknownKind, true, false, false},
		{ErrDuplicateColumn, true, false, false},
		{ErrInsufficientData, false, false, true},
		{ErrZeroVariance, false, false, true},
		{ErrSingularMatrix, false, true, false},
		{ErrNoConvergence, false, true, false},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("context: %w", tc.err)
		if got := IsValidationError(wrapped); got != tc.validation {
			t.Errorf("IsValidationError(%v) = %v, want %v", tc.err, got, tc.validation)
		}
		if got := IsComputationError(wrapped); got != tc.computation {
			t.Errorf("IsComputationError(%v) = %v, want %v", tc.err, got, tc.computation)
		}
		if got := IsInsufficientData(wrapped); got != tc.insufficient {
			t.Errorf("IsInsufficientData(%v) = %v, want %v", tc.err, got, tc.insufficient)
		}
	}
}
