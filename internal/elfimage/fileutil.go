package elfimage

import (
	"fmt"
	"os"

	"github.com/rvjit/rvjit/internal/rverr"
)

func fileLen(path string) (uint64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("elfimage: stat %q: %w", path, rverr.ElfParseError)
	}
	return uint64(st.Size()), nil
}
