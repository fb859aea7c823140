package rtstate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSingleStepTarget(t *testing.T) {
	require.Equal(t, uint64(11), SingleStepTarget(10))
}

func TestSuspendDisabledSentinel(t *testing.T) {
	require.Equal(t, uint64(math.MaxUint64), SuspendDisabled)
}

func TestBufferedDiffTracerCapacity(t *testing.T) {
	var tr BufferedDiffTracer
	require.Len(t, tr.Entries, BufferedDiffCapacity)
}
