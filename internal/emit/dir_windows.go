//go:build windows

package emit

import (
	"fmt"
	"os"
)

// writeFileAtomic falls back to a plain write: renameio has no Windows
// support because rename over an open file is not atomic there.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
