package runner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/elfimage"
	"github.com/rvjit/rvjit/internal/rtstate"
)

func TestNewHostStateIsAlignedAndSized(t *testing.T) {
	layout := rtstate.Compute(8, rtstate.NumGPRs, false, 0, 0)
	s := newHostState(layout, 8)

	require.Len(t, s.buf, layout.TotalSize)
	require.Zero(t, s.ptr()%8)
}

func TestLayoutForSelectsXlenFromImage(t *testing.T) {
	img64 := &elfimage.Image{Xlen: elfimage.Xlen64}
	img32 := &elfimage.Image{Xlen: elfimage.Xlen32}

	require.Equal(t, 8, layoutFor(img64, false).XlenBytes)
	require.Equal(t, 4, layoutFor(img32, false).XlenBytes)
}

func TestLayoutForThreadsSuspendEnabled(t *testing.T) {
	img := &elfimage.Image{Xlen: elfimage.Xlen64}

	require.Equal(t, -1, layoutFor(img, false).TargetInstretOffset)
	require.NotEqual(t, -1, layoutFor(img, true).TargetInstretOffset)
}
