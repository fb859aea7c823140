package rvmem

import "github.com/rvjit/rvjit/internal/config"

// Translate applies the configured address-translation strategy to a
// guest virtual address, mirroring the three modes emitted into
// generated code's rd_mem_*/wr_mem_* helpers (§3.7). ok is false only
// under Bounds mode when the access falls outside the region.
func Translate(mode config.AddressMode, vaddr uint64, memSize int, width int) (offset uint64, ok bool) {
	switch mode {
	case config.AddressUnchecked:
		return vaddr, true
	case config.AddressWrap:
		return vaddr & uint64(memSize-1), true
	case config.AddressBounds:
		if vaddr+uint64(width) > uint64(memSize) {
			return 0, false
		}
		return vaddr & uint64(memSize-1), true
	default:
		return vaddr, true
	}
}
