// Package hostcc invokes the host C compiler and linker as the final
// step of the C backend's artifact pipeline, and derives the matching
// llvm-addr2line for elfimage's debug-line lookup (§4.6, §4.2).
package hostcc

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rvjit/rvjit/internal/rverr"
)

// Toolchain names the host compiler command Run invokes and an
// optional linker override.
type Toolchain struct {
	CC     string // e.g. "clang-17", "cc"
	Linker string // "" lets the compiler pick its default linker
}

// Run executes cc with args in dir, capturing combined stderr for the
// error wrap and logging the invocation at debug level.
func (t Toolchain) Run(dir string, log zerolog.Logger, args ...string) error {
	cmd := exec.Command(t.CC, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	log.Debug().Str("cc", t.CC).Strs("args", args).Str("dir", dir).Msg("invoking host compiler")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hostcc: %s %s: %v: %w\n%s", t.CC, strings.Join(args, " "), err, rverr.CompilerInvocationError, stderr.String())
	}
	return nil
}

// Make runs `make` in dir, the final step after per-partition
// compilation (§4.6 "Partitioning"). jobs <= 0 omits -j, leaving make's
// default single-job behavior.
func (t Toolchain) Make(dir string, log zerolog.Logger, target string, jobs int) error {
	args := []string{}
	if jobs > 0 {
		args = append(args, "-j", strconv.Itoa(jobs))
	}
	if target != "" {
		args = append(args, target)
	}
	cmd := exec.Command("make", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	log.Debug().Str("dir", dir).Str("target", target).Msg("invoking make")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hostcc: make %s: %v: %w\n%s", target, err, rverr.CompilerInvocationError, stderr.String())
	}
	return nil
}

var clangVersionRE = regexp.MustCompile(`clang(?:-(\d+))?$`)

// LLDName derives "-fuse-ld=lld" auto-versioning: clang-N pairs with
// lld-N when N is present, else the bare "lld" (§4.6).
func (t Toolchain) LLDName() string {
	m := clangVersionRE.FindStringSubmatch(t.CC)
	if m == nil {
		return "lld"
	}
	if m[1] == "" {
		return "lld"
	}
	return "lld-" + m[1]
}

// Addr2LineName derives the matching llvm-addr2line binary name from
// the compiler name the same way LLDName derives lld's, so the ELF
// line-table lookup uses a toolchain-matched addr2line (§4.2).
func (t Toolchain) Addr2LineName() string {
	m := clangVersionRE.FindStringSubmatch(t.CC)
	if m == nil || m[1] == "" {
		return "llvm-addr2line"
	}
	return "llvm-addr2line-" + m[1]
}
