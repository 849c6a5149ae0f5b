package concord

import (
	"errors"
	"fmt"

	apperrors "tbsu/internal/errors"
)

var (
	// ErrInvalidInput marks a missing frame or an unknown column
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidArity marks a request that does not name exactly two keys
	ErrInvalidArity = errors.New("invalid arity")
	// ErrNullKey marks a null cell in a key or within column
	ErrNullKey = errors.New("null key")
	// ErrConvergenceTimeout marks a resolution stopped by the iteration cap
	ErrConvergenceTimeout = errors.New("convergence timeout")
)

func invalidInput(message, column string) error {
	err := apperrors.NewValidationError(message, ErrInvalidInput)
	if column != "" {
		err.WithContext("column", column)
	}
	return err
}

func invalidArity(got int) error {
	return apperrors.NewValidationError(
		fmt.Sprintf("exactly two grouping keys are required, got %d", got), ErrInvalidArity).
		WithContext("keys", got)
}

func nullKey(column string, row int) error {
	return apperrors.NewValidationError(
		fmt.Sprintf("column %q has a null value at row %d", column, row), ErrNullKey).
		WithContext("column", column).
		WithContext("row", row)
}

func convergenceTimeout(iterations, unsettled, total int) error {
	return apperrors.NewConvergenceError(
		fmt.Sprintf("%d of %d links unsettled after %d iterations", unsettled, total, iterations), ErrConvergenceTimeout).
		WithContext("iterations", iterations).
		WithContext("unsettled_rows", unsettled)
}
