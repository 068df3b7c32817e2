package build

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// BaseOption selects the console or windowed execution mode of the executable.
type BaseOption string

const (
	// BaseConsole keeps a terminal window attached to the executable.
	BaseConsole BaseOption = "Console"
	// BaseGUI hides the terminal window.
	BaseGUI BaseOption = "GUI"
)

// Defaults for a fresh configuration.
const (
	DefaultAppName = "MyApp"
	DefaultVersion = "1.0.0"
)

// ErrUnknownBaseOption is returned by ParseBaseOption for unsupported values.
var ErrUnknownBaseOption = errors.New("unknown base option")

// ParseBaseOption parses "console" or "gui" in any letter case.
func ParseBaseOption(s string) (BaseOption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "console", "":
		return BaseConsole, nil
	case "gui":
		return BaseGUI, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBaseOption, s)
	}
}

// BuildConfig is the flat record of packaging options.
type BuildConfig struct {
	// AppName names the setup project and the target executable.
	AppName string
	// Version is free-form, semver is not enforced.
	Version     string
	Description string
	Author      string
	// Packages are modules forced into the build.
	Packages []string
	// ExcludePackages are modules dropped from the build.
	ExcludePackages []string
	// IncludeFiles is derived from the session's additional files.
	IncludeFiles []string
	// Icon is an optional icon path; empty means no icon directive.
	Icon       string
	BaseOption BaseOption
}

// DefaultConfig returns the configuration a new session starts with.
func DefaultConfig() BuildConfig {
	return BuildConfig{
		AppName:         DefaultAppName,
		Version:         DefaultVersion,
		Packages:        []string{},
		ExcludePackages: []string{},
		IncludeFiles:    []string{},
		BaseOption:      BaseConsole,
	}
}

// Clone returns a deep copy so callers never share list backing arrays.
func (c BuildConfig) Clone() BuildConfig {
	c.Packages = cloneList(c.Packages)
	c.ExcludePackages = cloneList(c.ExcludePackages)
	c.IncludeFiles = cloneList(c.IncludeFiles)

	return c
}

// SetAppName replaces the application name.
func (c *BuildConfig) SetAppName(v string) { c.AppName = v }

// SetVersion replaces the version string.
func (c *BuildConfig) SetVersion(v string) { c.Version = v }

// SetDescription replaces the description.
func (c *BuildConfig) SetDescription(v string) { c.Description = v }

// SetAuthor replaces the author.
func (c *BuildConfig) SetAuthor(v string) { c.Author = v }

// SetIcon replaces the icon path.
func (c *BuildConfig) SetIcon(v string) { c.Icon = v }

// SetPackages parses a comma-separated list of packages to include.
func (c *BuildConfig) SetPackages(raw string) { c.Packages = SplitList(raw) }

// SetExcludePackages parses a comma-separated list of packages to exclude.
func (c *BuildConfig) SetExcludePackages(raw string) { c.ExcludePackages = SplitList(raw) }

// SetBaseOption parses and stores the base option. The field is left
// untouched when the value is not recognized.
func (c *BuildConfig) SetBaseOption(raw string) error {
	base, err := ParseBaseOption(raw)
	if err != nil {
		return err
	}

	c.BaseOption = base

	return nil
}

// SplitList splits on commas, trims every segment and drops empty ones,
// keeping the original order. Duplicates are kept.
func SplitList(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)

		return item, item != ""
	})
}

// JoinList is the inverse of SplitList used to prefill form inputs.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

func cloneList(items []string) []string {
	if items == nil {
		return []string{}
	}

	return slices.Clone(items)
}
