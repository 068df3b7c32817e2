package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/exe-builder/internal/domain/build"
)

// DefaultFileMode is applied to emitted files.
const DefaultFileMode os.FileMode = 0o644

// DirEmitter saves files into a folder. Each write is atomic: readers see
// either the previous file or the complete new one, and the temporary file
// is removed on every failure path. A later file with the same name wins.
type DirEmitter struct {
	dir string
}

// NewDirEmitter creates the folder when needed.
func NewDirEmitter(dir string) (*DirEmitter, error) {
	dir = filepath.Clean(dir)

	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd // Regular directory permissions.
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	return &DirEmitter{dir: dir}, nil
}

// Dir returns the target folder.
func (e *DirEmitter) Dir() string {
	return e.dir
}

// Emit writes filename into the folder.
func (e *DirEmitter) Emit(ctx context.Context, filename, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := build.ValidateName(filename); err != nil {
		return err
	}

	return writeFileAtomic(filepath.Join(e.dir, filename), []byte(content), DefaultFileMode)
}
