// Package cases discovers simulation cases from deck files on disk.
package cases

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands a glob pattern over deck files in fsys and returns
// the distinct case names, sorted. A case name is the matched path with
// its extension stripped, so caseA.fcs and caseA.dat collapse into one
// case. Directories are skipped.
func Discover(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	var names []string
	for _, m := range matches {
		info, err := fs.Stat(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		if info.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(m, path.Ext(m)))
	}

	slices.Sort(names)
	return slices.Compact(names), nil
}
