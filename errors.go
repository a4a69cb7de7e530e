package colcluster

import (
	"errors"
	"fmt"

	"github.com/hupe1980/colcluster/blobstore"
	"github.com/hupe1980/colcluster/internal/errs"
	"github.com/hupe1980/colcluster/resource"
)

var (
	// ErrAllocationFailure is returned when a memory reservation is refused.
	ErrAllocationFailure = errs.ErrAllocationFailure
	// ErrInvalidArgument is returned for malformed inputs.
	ErrInvalidArgument = errs.ErrInvalidArgument
	// ErrInternalInvariant is returned when an internal invariant is violated.
	ErrInternalInvariant = errs.ErrInternalInvariant

	// ErrColumnNotFound is returned for operations on an unknown column.
	ErrColumnNotFound = errors.New("column not found")
	// ErrColumnExists is returned when adding a column under a taken name.
	ErrColumnExists = errors.New("column already exists")
	// ErrNotFound is returned when a checkpoint blob does not exist.
	ErrNotFound = errors.New("not found")
)

// CardinalityMismatchError reports inputs that are not aligned.
type CardinalityMismatchError = errs.CardinalityMismatchError

// BitWidthError reports a partition digit width outside the supported range.
type BitWidthError = errs.BitWidthError

// BudgetError reports a refused memory reservation.
type BudgetError = errs.BudgetError

// ColumnError attaches the column name to the error of an operation.
//
// The original underlying error can be accessed via errors.Unwrap.
type ColumnError struct {
	Op     string
	Column string
	cause  error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Column, e.cause)
}

func (e *ColumnError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Budget unification: controllers refuse with their own sentinel.
	if errors.Is(err, resource.ErrMemoryLimitExceeded) && !errors.Is(err, ErrAllocationFailure) {
		return fmt.Errorf("%w: %w", ErrAllocationFailure, err)
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}

func columnError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &ColumnError{Op: op, Column: name, cause: translateError(err)}
}
