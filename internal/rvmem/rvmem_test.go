package rvmem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/config"
)

func TestNewRejectsNonPositiveSize(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
}

func TestNewAllocatesUsableRegionOfExactSize(t *testing.T) {
	m, err := New(1 << 16)
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, 1<<16, m.Size())
	require.Len(t, m.Bytes(), 1<<16)
}

func TestCopyFromAndClear(t *testing.T) {
	m, err := New(1 << 12)
	require.NoError(t, err)
	defer m.Close()

	m.CopyFrom(0, []byte{1, 2, 3, 4})
	require.Equal(t, []byte{1, 2, 3, 4}, m.Bytes()[:4])

	m.Clear()
	require.Equal(t, byte(0), m.Bytes()[0])
}

func TestTranslateUnchecked(t *testing.T) {
	off, ok := Translate(config.AddressUnchecked, 0xdeadbeef, 1<<16, 4)
	require.True(t, ok)
	require.Equal(t, uint64(0xdeadbeef), off)
}

func TestTranslateWrapMasks(t *testing.T) {
	off, ok := Translate(config.AddressWrap, 1<<16, 1<<16, 4)
	require.True(t, ok)
	require.Equal(t, uint64(0), off)
}

func TestTranslateBoundsRejectsOutOfRange(t *testing.T) {
	_, ok := Translate(config.AddressBounds, (1<<16)-2, 1<<16, 4)
	require.False(t, ok)

	off, ok := Translate(config.AddressBounds, 100, 1<<16, 4)
	require.True(t, ok)
	require.Equal(t, uint64(100), off)
}

func TestNewAtRejectsNonPositiveSize(t *testing.T) {
	_, err := NewAt(0x700000000000, 0)
	require.Error(t, err)
}

func TestNewAtPlacesUsableRegionAtRequestedAddress(t *testing.T) {
	const addr = 0x700000000000
	m, err := NewAt(addr, 1<<16)
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, uintptr(addr), m.BaseAddr())
	require.Equal(t, 1<<16, m.Size())
}

func TestMapFixedRawRejectsNonPositiveSize(t *testing.T) {
	_, err := MapFixedRaw(0x710000000000, 0)
	require.Error(t, err)
}

func TestMapFixedRawAndUnmapRaw(t *testing.T) {
	const addr = 0x710000000000
	region, err := MapFixedRaw(addr, 4096)
	require.NoError(t, err)
	require.Len(t, region, 4096)

	region[0] = 0xAB
	require.Equal(t, byte(0xAB), region[0])
	require.NoError(t, UnmapRaw(region))
}
