package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input-shape errors
	ErrValidation      = errors.New("validation failed")
	ErrColumnNotFound  = errors.New("column not found")
	ErrLengthMismatch  = errors.New("columns have mismatched lengths")
	ErrNonNumeric      = errors.New("column is not numeric")
	ErrNonFiniteValue  = errors.New("non-finite value in numeric column")
	ErrEmptyColumn     = errors.New("column has no values")
	ErrUnknownKind     = errors.New("unknown column kind")
	ErrDuplicateColumn = errors.New("duplicate column name")

	// Computation preconditions
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrZeroVariance     = errors.New("column has zero variance")
	ErrSingularMatrix   = errors.New("normal-equation matrix is singular")
	ErrNoConvergence    = errors.New("solver did not converge")
)

// NewValidationError builds an input-shape error with field context. The
// wrapped sentinel is what lets IsValidationError classify it.
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

// NewColumnError wraps a sentinel with the offending column name
func NewColumnError(sentinel error, column string) error {
	return fmt.Errorf("%w: %s", sentinel, column)
}

// IsValidationError reports whether err describes malformed input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrNonNumeric) ||
		errors.Is(err, ErrNonFiniteValue) ||
		errors.Is(err, ErrEmptyColumn) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrDuplicateColumn)
}

// IsComputationError reports whether err came from a numeric solver
func IsComputationError(err error) bool {
	return errors.Is(err, ErrSingularMatrix) ||
		errors.Is(err, ErrNoConvergence)
}

// IsInsufficientData reports whether err is a minimum-sample failure
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrZeroVariance)
}
