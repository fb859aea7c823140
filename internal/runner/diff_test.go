package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstNonNilReturnsEarliestError(t *testing.T) {
	errB := errors.New("b failed")
	require.Equal(t, errB, firstNonNil(nil, errB, errors.New("c failed")))
}

func TestFirstNonNilReturnsNilWhenAllNil(t *testing.T) {
	require.NoError(t, firstNonNil(nil, nil))
}
