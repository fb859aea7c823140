// Package rvmem allocates guarded guest memory: a read/write region
// bracketed by two PROT_NONE guard pages so out-of-range guest accesses
// trap at the OS level instead of needing an explicit bounds check on
// every load/store (§3.7). Grounded on the guard-page strategy of the
// original rvr-state memory allocator, reimplemented over
// golang.org/x/sys/unix instead of nix/mman.
package rvmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/rvjit/rvjit/internal/rverr"
)

// GuardSize is the size of each bracketing guard page: 16KiB, large
// enough to cover the widest load/store offset generated code can
// construct before the access itself traps.
const GuardSize = 1 << 14

// DefaultSize is the default usable memory region size (4 GiB), per
// §3.7.
const DefaultSize = 1 << 32

// GuardedMemory is a mmap'd region laid out [guard][memory][guard],
// with both guard pages mapped PROT_NONE.
type GuardedMemory struct {
	region     []byte // the full mmap'd span, including both guards
	memSize    int
}

// New allocates a GuardedMemory of the given usable size. size must be
// a multiple of the system page size in practice; mmap rounds up
// regardless.
func New(size int) (*GuardedMemory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("rvmem: invalid memory size %d", size)
	}
	total := size + 2*GuardSize

	region, err := unix.Mmap(-1, 0, total, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("rvmem: mmap %d bytes: %v", total, err)
	}

	usable := region[GuardSize : GuardSize+size]
	if err := unix.Mprotect(usable, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		_ = unix.Munmap(region)
		return nil, fmt.Errorf("rvmem: mprotect usable region: %v", err)
	}

	return &GuardedMemory{region: region, memSize: size}, nil
}

// WithDefaultSize allocates a GuardedMemory of DefaultSize.
func WithDefaultSize() (*GuardedMemory, error) { return New(DefaultSize) }

// NewAt allocates a GuardedMemory whose usable region begins exactly
// at addr, for fixed-address mode where generated code casts
// RV_FIXED_MEMORY_ADDR to a pointer at compile time rather than
// receiving it as an argument (§6.1 "fixed_addresses"). The guard page
// is placed below addr, so the caller must reserve GuardSize bytes
// below addr in its address-space plan. Goes through the raw mmap(2)
// syscall rather than unix.Mmap since that wrapper has no way to pass
// an address hint together with MAP_FIXED.
func NewAt(addr uintptr, size int) (*GuardedMemory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("rvmem: invalid memory size %d", size)
	}
	total := size + 2*GuardSize
	hint := addr - GuardSize

	base, _, errno := unix.Syscall6(unix.SYS_MMAP, hint, uintptr(total),
		unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_FIXED, ^uintptr(0), 0)
	if errno != 0 {
		return nil, fmt.Errorf("rvmem: fixed mmap at 0x%x: %v", addr, errno)
	}
	if base != hint {
		return nil, fmt.Errorf("rvmem: fixed mmap at 0x%x landed at 0x%x instead", hint, base)
	}
	regionBytes := unsafe.Slice((*byte)(unsafe.Pointer(base)), total)

	usable := regionBytes[GuardSize : GuardSize+size]
	if err := unix.Mprotect(usable, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		_, _, _ = unix.Syscall(unix.SYS_MUNMAP, base, uintptr(total), 0)
		return nil, fmt.Errorf("rvmem: mprotect fixed usable region: %v", err)
	}

	return &GuardedMemory{region: regionBytes, memSize: size}, nil
}

// Bytes returns the usable (non-guard) memory slice.
func (m *GuardedMemory) Bytes() []byte {
	return m.region[GuardSize : GuardSize+m.memSize]
}

// Size returns the usable region size in bytes.
func (m *GuardedMemory) Size() int { return m.memSize }

// BaseAddr returns the address of the first usable byte, the value
// fixed_addresses.memory_addr is checked against when fixed-address
// mode is enabled (§6.1).
func (m *GuardedMemory) BaseAddr() uintptr {
	return uintptrOf(m.Bytes())
}

// Clear zero-fills the usable region.
func (m *GuardedMemory) Clear() {
	b := m.Bytes()
	for i := range b {
		b[i] = 0
	}
}

// CopyFrom copies data into the usable region starting at offset. The
// caller must ensure offset+len(data) <= Size(); rvmem does not
// re-check here since segment placement is already validated by
// elfimage (§4.2).
func (m *GuardedMemory) CopyFrom(offset int, data []byte) {
	copy(m.Bytes()[offset:], data)
}

// Close unmaps the entire guarded region, guards included.
func (m *GuardedMemory) Close() error {
	if err := unix.Munmap(m.region); err != nil {
		return fmt.Errorf("rvmem: munmap: %w", rverr.ExecutionError)
	}
	return nil
}

// MapFixedRaw mmaps an ungated read/write region of size bytes at
// exactly addr, for the RvState buffer under fixed-address mode
// (RV_FIXED_STATE_ADDR); unlike NewAt it carries no guard pages since
// RvState is a single fixed-size struct, not a guest-addressable
// region generated code indexes into.
func MapFixedRaw(addr uintptr, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("rvmem: invalid size %d", size)
	}
	base, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_FIXED, ^uintptr(0), 0)
	if errno != 0 {
		return nil, fmt.Errorf("rvmem: fixed mmap at 0x%x: %v", addr, errno)
	}
	if base != addr {
		return nil, fmt.Errorf("rvmem: fixed mmap at 0x%x landed at 0x%x instead", addr, base)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), size), nil
}

// UnmapRaw unmaps a region previously returned by MapFixedRaw.
func UnmapRaw(region []byte) error {
	if len(region) == 0 {
		return nil
	}
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, uintptrOf(region), uintptr(len(region)), 0)
	if errno != 0 {
		return fmt.Errorf("rvmem: munmap: %v", errno)
	}
	return nil
}
