package capture

import (
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Source is a file-like input: a browser upload or a path on disk.
type Source interface {
	// Name is the name the user sees; it may contain directories.
	Name() string
	// Open returns the file contents.
	Open() (io.ReadCloser, error)
}

// PathSource reads a file from the local filesystem.
type PathSource string

// Name returns the path as given.
func (p PathSource) Name() string { return string(p) }

// Open opens the file for reading.
func (p PathSource) Open() (io.ReadCloser, error) {
	return os.Open(filepath.Clean(string(p)))
}

// UploadSource adapts a multipart upload.
type UploadSource struct {
	Header *multipart.FileHeader
}

// Name returns the client supplied file name.
func (u UploadSource) Name() string { return u.Header.Filename }

// Open opens the uploaded part.
func (u UploadSource) Open() (io.ReadCloser, error) {
	return u.Header.Open()
}

// UploadSources wraps every header of a multipart field.
func UploadSources(headers []*multipart.FileHeader) []Source {
	sources := make([]Source, 0, len(headers))
	for _, header := range headers {
		sources = append(sources, UploadSource{Header: header})
	}

	return sources
}

// PathSources wraps every path.
func PathSources(paths []string) []Source {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, PathSource(p))
	}

	return sources
}

// baseName strips directories using both separators, since browsers on
// Windows may send backslash paths.
func baseName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}
