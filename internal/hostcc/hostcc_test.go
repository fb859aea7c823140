package hostcc

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLLDNameDerivesFromVersionedClang(t *testing.T) {
	require.Equal(t, "lld-17", Toolchain{CC: "clang-17"}.LLDName())
	require.Equal(t, "lld", Toolchain{CC: "clang"}.LLDName())
	require.Equal(t, "lld", Toolchain{CC: "cc"}.LLDName())
	require.Equal(t, "lld", Toolchain{CC: "gcc-13"}.LLDName())
}

func TestAddr2LineNameDerivesFromVersionedClang(t *testing.T) {
	require.Equal(t, "llvm-addr2line-17", Toolchain{CC: "clang-17"}.Addr2LineName())
	require.Equal(t, "llvm-addr2line", Toolchain{CC: "clang"}.Addr2LineName())
}

func TestRunWrapsCompilerInvocationError(t *testing.T) {
	tc := Toolchain{CC: "false"}
	err := tc.Run(t.TempDir(), zerolog.Nop(), "--bogus-flag-that-does-not-exist")
	require.Error(t, err)
}
