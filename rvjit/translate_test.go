package rvjit

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rvjit/rvjit/internal/config"
	"github.com/rvjit/rvjit/internal/rverr"
)

func TestTranslateReturnsElfParseErrorForMissingFile(t *testing.T) {
	_, err := Translate(t.TempDir()+"/does-not-exist", t.TempDir(), config.NewCompileOptions(), zerolog.Nop())
	require.ErrorIs(t, err, rverr.ElfParseError)
}
