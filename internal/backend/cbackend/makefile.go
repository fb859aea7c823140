package cbackend

import (
	"fmt"
	"strings"

	"github.com/rvjit/rvjit/internal/hostcc"
)

// GenerateMakefile renders the Makefile driving per-partition parallel
// compilation and the final shared-library link (§4.6 "Partitioning").
func GenerateMakefile(baseName string, tc hostcc.Toolchain, jobs int, extraObjs []string) string {
	var out strings.Builder
	fmt.Fprintf(&out, "CC := %s\n", tc.CC)
	fmt.Fprintf(&out, "LIB := lib%s.so\n", baseName)
	fmt.Fprintf(&out, "PARTS := $(wildcard %s_part*.c)\n", baseName)
	fmt.Fprintf(&out, "OBJS := $(PARTS:.c=.o) %s_dispatch.o abi.o memory.o %s\n", baseName, strings.Join(extraObjs, " "))
	fmt.Fprintf(&out, "CFLAGS := -O2 -fPIC -shared -fuse-ld=%s\n\n", tc.LLDName())

	out.WriteString(".PHONY: all clean\n")
	out.WriteString("all: $(LIB)\n\n")
	out.WriteString("$(LIB): $(OBJS)\n")
	out.WriteString("\t$(CC) $(CFLAGS) -o $@ $(OBJS)\n\n")
	out.WriteString("%.o: %.c\n")
	out.WriteString("\t$(CC) -c -O2 -fPIC -o $@ $<\n\n")
	out.WriteString("clean:\n\trm -f $(OBJS) $(LIB)\n")
	_ = jobs // parallelism comes from invoking `make -jN`, not a per-file flag
	return out.String()
}
