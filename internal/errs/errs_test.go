package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsUnwrapToKind(t *testing.T) {
	assert.ErrorIs(t, &CardinalityMismatchError{Expected: 3, Actual: 2}, ErrInvalidArgument)
	assert.ErrorIs(t, &BitWidthError{Bits: 40, Max: 32}, ErrInvalidArgument)

	cause := errors.New("memory limit exceeded")
	be := NewBudgetError("hashindex.build", 128, cause)
	assert.ErrorIs(t, be, ErrAllocationFailure)
	assert.ErrorIs(t, be, cause)
	assert.Contains(t, be.Error(), "128 bytes")

	assert.ErrorIs(t, Invalid("bad %d", 1), ErrInvalidArgument)
	assert.ErrorIs(t, Invariant("zero buckets"), ErrInternalInvariant)
}

func TestAligned(t *testing.T) {
	require.NoError(t, Aligned(4, []string{"a", "b"}, []int{4, 4}))

	err := Aligned(4, []string{"a", "b"}, []int{3, 4, 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var cm *CardinalityMismatchError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, "a", cm.Name)
	assert.Contains(t, err.Error(), `"#2"`)
}
