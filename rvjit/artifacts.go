package rvjit

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// writeArtifacts writes every generated file and embedded binary blob
// under dir, fanning the writes out across goroutines since partition
// sources and embedded memory blobs are independent of one another and
// a large translation unit can produce dozens of them (§4.6
// "Partitioning").
func writeArtifacts(dir string, files map[string]string, bins map[string][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("rvjit: creating output dir %s: %w", dir, err)
	}

	var g errgroup.Group
	for name, content := range files {
		name, content := name, content
		g.Go(func() error {
			return writeFile(dir, name, []byte(content))
		})
	}
	for name, data := range bins {
		name, data := name, data
		g.Go(func() error {
			return writeFile(dir, name, data)
		})
	}
	return g.Wait()
}

func writeFile(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("rvjit: writing %s: %w", path, err)
	}
	return nil
}
