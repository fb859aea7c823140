package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunResultMipsIsZeroWithoutElapsedTime(t *testing.T) {
	r := RunResult{Instret: 1000}
	require.Zero(t, r.Mips())
}

func TestRunResultMipsComputesMillionsPerSecond(t *testing.T) {
	r := RunResult{Instret: 2_000_000, Time: time.Second}
	require.InDelta(t, 2.0, r.Mips(), 1e-9)
}
