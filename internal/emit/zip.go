package emit

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/exe-builder/internal/domain/build"
)

// ZipEmitter writes every emitted file as an entry of one zip archive.
// Duplicate names produce duplicate entries; unzip tools keep the last one.
type ZipEmitter struct {
	writer   *zip.Writer
	modified time.Time
}

// NewZipEmitter starts an archive on w. Close must be called to finish it.
func NewZipEmitter(w io.Writer) *ZipEmitter {
	return &ZipEmitter{
		writer:   zip.NewWriter(w),
		modified: time.Now(),
	}
}

// Emit adds a deflated entry.
func (e *ZipEmitter) Emit(ctx context.Context, filename, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := build.ValidateName(filename); err != nil {
		return err
	}

	entry, err := e.writer.CreateHeader(&zip.FileHeader{
		Name:     filename,
		Method:   zip.Deflate,
		Modified: e.modified,
	})
	if err != nil {
		return fmt.Errorf("create zip entry: %w", err)
	}

	if _, err = io.WriteString(entry, content); err != nil {
		return fmt.Errorf("write zip entry: %w", err)
	}

	return nil
}

// Close writes the central directory.
func (e *ZipEmitter) Close() error {
	return e.writer.Close()
}
