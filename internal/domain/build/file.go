package build

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyName is returned for a file record without a name.
	ErrEmptyName = errors.New("file name is empty")
	// ErrUnsafeName is returned for names that could escape the target folder.
	ErrUnsafeName = errors.New("file name is not filesystem-safe")
)

// FileRecord is a file captured from the user. It is never modified after capture.
type FileRecord struct {
	// Name is the original base name, reused verbatim on download.
	Name string
	// Content holds the raw bytes of the file.
	Content string
	// ContentType is the sniffed MIME type, used for download headers.
	ContentType string
}

// NewFileRecord validates the name and returns a record.
func NewFileRecord(name, content, contentType string) (FileRecord, error) {
	if err := ValidateName(name); err != nil {
		return FileRecord{}, err
	}

	return FileRecord{
		Name:        name,
		Content:     content,
		ContentType: contentType,
	}, nil
}

// ValidateName accepts plain, valid UTF-8 base names only.
func ValidateName(name string) error {
	switch {
	case name == "":
		return ErrEmptyName
	case name == "." || name == "..",
		strings.ContainsAny(name, `/\`),
		strings.ContainsRune(name, 0),
		!utf8.ValidString(name):
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	default:
		return nil
	}
}
