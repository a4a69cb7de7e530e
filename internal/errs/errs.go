// Package errs defines the error kinds shared by every colcluster component.
//
// Each typed error unwraps to exactly one of the sentinel kinds so callers can
// classify failures with errors.Is regardless of which package produced them.
package errs

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrAllocationFailure is returned when a buffer could not be reserved
	// against the memory budget.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrInvalidArgument is returned for bad bit widths, mismatched
	// cardinalities and other caller errors detected before any mutation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInternalInvariant is returned when an algorithm detects that one of
	// its own invariants no longer holds.
	ErrInternalInvariant = errors.New("internal invariant violation")
)

// CardinalityMismatchError reports a column whose length differs from the
// length every aligned input must share.
type CardinalityMismatchError struct {
	Name     string
	Expected int
	Actual   int
}

func (e *CardinalityMismatchError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("cardinality mismatch: expected %d, got %d", e.Expected, e.Actual)
	}
	return fmt.Sprintf("cardinality mismatch for %q: expected %d, got %d", e.Name, e.Expected, e.Actual)
}

func (e *CardinalityMismatchError) Unwrap() error { return ErrInvalidArgument }

// BitWidthError reports a partition digit width outside [0, Max).
type BitWidthError struct {
	Bits int
	Max  int
}

func (e *BitWidthError) Error() string {
	return fmt.Sprintf("bit width %d outside [0, %d)", e.Bits, e.Max)
}

func (e *BitWidthError) Unwrap() error { return ErrInvalidArgument }

// BudgetError reports a refused memory reservation.
//
// It unwraps to both ErrAllocationFailure and the controller's own error.
type BudgetError struct {
	Op    string
	Bytes int64
	cause error
}

// NewBudgetError wraps a refused reservation of bytes made on behalf of op.
func NewBudgetError(op string, bytes int64, cause error) *BudgetError {
	return &BudgetError{Op: op, Bytes: bytes, cause: cause}
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s: cannot reserve %d bytes: %v", e.Op, e.Bytes, e.cause)
}

func (e *BudgetError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrAllocationFailure}
	}
	return []error{ErrAllocationFailure, e.cause}
}

// Invalid returns an ErrInvalidArgument carrying a formatted message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Invariant returns an ErrInternalInvariant carrying a formatted message.
func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternalInvariant, fmt.Sprintf(format, args...))
}

// Aligned checks that every entry of lens equals n. All mismatches are
// reported together; names[i] labels lens[i] and may be shorter than lens.
func Aligned(n int, names []string, lens []int) error {
	var result *multierror.Error
	for i, l := range lens {
		if l == n {
			continue
		}
		name := ""
		if i < len(names) {
			name = names[i]
		} else {
			name = fmt.Sprintf("#%d", i)
		}
		result = multierror.Append(result, &CardinalityMismatchError{Name: name, Expected: n, Actual: l})
	}
	return result.ErrorOrNil()
}
