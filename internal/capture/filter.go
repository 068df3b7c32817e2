package capture

import (
	"path/filepath"
	"slices"
	"strings"
)

// Filter is a set of accepted lower-case file extensions.
type Filter map[string]struct{}

// Filters for both upload slots.
//
//nolint:gochecknoglobals // Read-only lookup tables.
var (
	MainFilter = newFilter(".py")

	AdditionalFilter = newFilter(
		// Sources.
		".py",
		// Compiled extensions and shared libraries.
		".pyd", ".dll",
		// Data.
		".txt", ".json", ".xml", ".csv",
		// Images.
		".png", ".jpg", ".jpeg", ".ico",
	)
)

func newFilter(extensions ...string) Filter {
	filter := make(Filter, len(extensions))
	for _, ext := range extensions {
		filter[ext] = struct{}{}
	}

	return filter
}

// Accepts reports whether the file name has an accepted extension.
func (f Filter) Accepts(name string) bool {
	_, ok := f[strings.ToLower(filepath.Ext(name))]

	return ok
}

// Extensions lists the accepted extensions in sorted order.
func (f Filter) Extensions() []string {
	extensions := make([]string, 0, len(f))
	for ext := range f {
		extensions = append(extensions, ext)
	}

	slices.Sort(extensions)

	return extensions
}
