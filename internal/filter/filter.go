package filter

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Func reports whether a logical name is accepted.
type Func func(logicalName string) bool

// All accepts a name only when every non-nil fn accepts it.
func All(fns ...Func) Func {
	return func(name string) bool {
		for _, fn := range fns {
			if fn != nil && !fn(name) {
				return false
			}
		}

		return true
	}
}

// NameFilter accepts logical names matching any include pattern (or all
// names when there are none) and no exclude pattern.
type NameFilter struct {
	includes []string
	excludes []string
}

// New validates the patterns and creates a NameFilter.
func New(includes, excludes []string) (*NameFilter, error) {
	f := &NameFilter{}

	for _, p := range includes {
		glob, err := toGlob(p)
		if err != nil {
			return nil, fmt.Errorf("include pattern: %w", err)
		}

		f.includes = append(f.includes, glob)
	}

	for _, p := range excludes {
		glob, err := toGlob(p)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern: %w", err)
		}

		f.excludes = append(f.excludes, glob)
	}

	return f, nil
}

// Empty reports whether the filter accepts everything.
func (f *NameFilter) Empty() bool {
	return len(f.includes) == 0 && len(f.excludes) == 0
}

// Accept reports whether logicalName passes the filter.
func (f *NameFilter) Accept(logicalName string) bool {
	name := strings.ReplaceAll(logicalName, ".", "/")

	if len(f.includes) > 0 && !matchAny(f.includes, name) {
		return false
	}

	return !matchAny(f.excludes, name)
}

// Func returns Accept as a [Func], or nil when the filter is empty.
func (f *NameFilter) Func() Func {
	if f.Empty() {
		return nil
	}

	return f.Accept
}

func matchAny(globs []string, name string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
	}

	return false
}

// toGlob converts a dotted pattern to a slash-separated doublestar glob.
func toGlob(pattern string) (string, error) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return "", fmt.Errorf("empty pattern")
	}

	glob := strings.ReplaceAll(trimmed, ".", "/")
	if !doublestar.ValidatePattern(glob) {
		return "", fmt.Errorf("invalid pattern %q", pattern)
	}

	return glob, nil
}
