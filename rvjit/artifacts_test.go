package rvjit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteArtifactsWritesFilesAndBins(t *testing.T) {
	dir := t.TempDir()
	err := writeArtifacts(dir,
		map[string]string{"a.c": "int main(){}"},
		map[string][]byte{"blob.bin": {1, 2, 3}},
	)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "a.c"))
	require.NoError(t, err)
	require.Equal(t, "int main(){}", string(got))

	bin, err := os.ReadFile(filepath.Join(dir, "blob.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, bin)
}
