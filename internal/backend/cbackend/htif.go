package cbackend

import (
	"fmt"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/elfimage"
)

// DefaultTohostAddr is the fallback tohost address used when the
// symbol cannot be resolved from the ELF's symbol table (§6.4).
const DefaultTohostAddr = 0x80001000

// HtifConfig carries the resolved tohost/fromhost addresses shared
// between the header's accessor guard and htif.c's definition of
// rv_htif_tohost, or nil when htif mode is disabled.
type HtifConfig struct {
	TohostAddr   uint64
	FromhostAddr uint64
	Verbose      bool
}

// ResolveHtif returns the htif configuration for img under opts, or
// nil when htif is not enabled. tohost/fromhost are resolved from the
// ELF symbol table when present, falling back to DefaultTohostAddr and
// the classic fromhost-follows-tohost-by-8-bytes layout (§6.4).
func ResolveHtif(img *elfimage.Image, opts *config.CompileOptions) *HtifConfig {
	enabled, verbose := opts.Htif()
	if !enabled {
		return nil
	}
	tohost := uint64(DefaultTohostAddr)
	if sym, ok := img.LookupSymbol("tohost"); ok {
		tohost = sym.Value
	}
	fromhost := tohost + 8
	if sym, ok := img.LookupSymbol("fromhost"); ok {
		fromhost = sym.Value
	}
	return &HtifConfig{TohostAddr: tohost, FromhostAddr: fromhost, Verbose: verbose}
}

// GenerateHtif renders htif.c: the write-path hook invoked from
// wr_mem_u64 whenever a store targets tohost (§6.4). A value of
// (code<<1)|1 triggers exit; anything else is treated as a
// syscall-struct pointer that triggers a host-handled write(2) plus an
// acknowledgement write to fromhost.
func GenerateHtif(baseName string, htif HtifConfig) string {
	verboseLine := ""
	if htif.Verbose {
		verboseLine = `  fprintf(stderr, "htif: tohost=0x%llx\n", (unsigned long long)value);
`
	}
	return fmt.Sprintf(`#include <stdio.h>
#include <unistd.h>

#include "%s.h"

void rv_htif_tohost(RvState* state, uint8_t* memory, uint64_t value) {
%s  if (value & 1) {
    state->exit_code = (uint8_t)(value >> 1);
    state->has_exited = 1;
    return;
  }
  uint64_t* req = (uint64_t*)(memory + value);
  uint64_t fd = req[0], buf = req[1], len = req[2];
  ssize_t n = write((int)fd, memory + buf, (size_t)len);
  *(uint64_t*)(memory + RV_HTIF_FROMHOST) = (uint64_t)((n << 1) | 1);
}
`, baseName, verboseLine)
}
