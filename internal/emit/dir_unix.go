//go:build !windows

package emit

import (
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// writeFileAtomic writes through a pending temp file that is either renamed
// over the target or cleaned up.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	defer func() {
		_ = pending.Cleanup()
	}()

	if _, err = pending.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err = pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}
