package stack

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ResolveSources expands a glob pattern to absolute paths sorted by base
// name. The sort order is the acquisition order.
func ResolveSources(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("stack: pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %q", ErrNoSources, pattern)
	}
	return SortSources(matches)
}

// SortSources makes an explicit file list absolute and sorts it by base
// name, the same order ResolveSources produces. Names are not validated:
// files that do not follow the acquisition's naming sort into a wrong
// volume.
func SortSources(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoSources
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("stack: %s: %w", p, err)
		}
		out[i] = abs
	}
	sort.SliceStable(out, func(i, j int) bool {
		return filepath.Base(out[i]) < filepath.Base(out[j])
	})
	return out, nil
}
