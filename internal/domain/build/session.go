package build

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ErrIndexOutOfRange is returned when removing an additional file that does not exist.
var ErrIndexOutOfRange = errors.New("additional file index out of range")

// Session is everything one user has entered so far.
type Session struct {
	// MainFile is the entry-point script, nil until captured.
	MainFile *FileRecord
	// AdditionalFiles keeps the order the files were added in.
	AdditionalFiles []FileRecord
	// Config holds the packaging options.
	Config BuildConfig
}

// NewSession returns a session with the default configuration.
func NewSession() *Session {
	return &Session{
		AdditionalFiles: []FileRecord{},
		Config:          DefaultConfig(),
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	cloned := &Session{
		AdditionalFiles: slices.Clone(s.AdditionalFiles),
		Config:          s.Config.Clone(),
	}

	if cloned.AdditionalFiles == nil {
		cloned.AdditionalFiles = []FileRecord{}
	}

	if s.MainFile != nil {
		mainFile := *s.MainFile
		cloned.MainFile = &mainFile
	}

	return cloned
}

// MainFileName returns the main file name or "" when none is captured.
func (s *Session) MainFileName() string {
	if s.MainFile == nil {
		return ""
	}

	return s.MainFile.Name
}

// HasMainFile reports whether a main file is captured.
func (s *Session) HasMainFile() bool {
	return s.MainFile != nil
}

// WithMainFile replaces the main file.
func WithMainFile(s *Session, file FileRecord) *Session {
	next := s.Clone()
	next.MainFile = &file

	return next
}

// WithoutMainFile clears the main file.
func WithoutMainFile(s *Session) *Session {
	next := s.Clone()
	next.MainFile = nil

	return next
}

// WithAdditionalFiles appends files in the given order.
func WithAdditionalFiles(s *Session, files ...FileRecord) *Session {
	next := s.Clone()
	next.AdditionalFiles = append(next.AdditionalFiles, files...)
	next.Config.IncludeFiles = IncludeFilesOf(next.AdditionalFiles)

	return next
}

// WithoutAdditionalFile removes the file at index, keeping the relative order of the rest.
func WithoutAdditionalFile(s *Session, index int) (*Session, error) {
	if index < 0 || index >= len(s.AdditionalFiles) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(s.AdditionalFiles))
	}

	next := s.Clone()
	next.AdditionalFiles = slices.Delete(next.AdditionalFiles, index, index+1)
	next.Config.IncludeFiles = IncludeFilesOf(next.AdditionalFiles)

	return next, nil
}

// WithConfig replaces the configuration. IncludeFiles always stays derived
// from the additional files, whatever the caller passed.
func WithConfig(s *Session, cfg BuildConfig) *Session {
	next := s.Clone()
	next.Config = cfg.Clone()
	next.Config.IncludeFiles = IncludeFilesOf(next.AdditionalFiles)

	return next
}

// IncludeFilesOf lists the names cx_Freeze must copy next to the executable:
// every additional file except Python sources, which import analysis finds.
func IncludeFilesOf(files []FileRecord) []string {
	return lo.FilterMap(files, func(file FileRecord, _ int) (string, bool) {
		return file.Name, !strings.EqualFold(filepath.Ext(file.Name), ".py")
	})
}
