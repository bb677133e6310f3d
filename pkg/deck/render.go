// Package deck renders templated simulation case decks in place before a
// run, so one deck can be parameterized per study from a YAML context.
package deck

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/bmatcuk/doublestar/v4"
)

// Render renders every file under workDir matched by the include globs
// (minus the exclude globs) as a Go template with the given data,
// rewriting each file in place.
func Render(workDir string, include, exclude []string, data map[string]any) error {
	files, err := filterFiles(os.DirFS(workDir), include, exclude)
	if err != nil {
		return fmt.Errorf("selecting deck files: %w", err)
	}

	slog.Info("rendering deck files", "dir", workDir, "count", len(files))

	for _, file := range files {
		if err := renderFile(workDir, file, data); err != nil {
			return fmt.Errorf("rendering %s: %w", file, err)
		}
	}

	return nil
}

func globFS(fsys fs.FS, patterns []string) ([]string, error) {
	var result []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		result = append(result, matches...)
	}
	slices.Sort(result)
	return slices.Compact(result), nil
}

func filterFiles(fsys fs.FS, include, exclude []string) ([]string, error) {
	included, err := globFS(fsys, include)
	if err != nil {
		return nil, fmt.Errorf("include filter: %w", err)
	}

	excluded, err := globFS(fsys, exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude filter: %w", err)
	}

	var result []string
	for _, f := range included {
		info, err := fs.Stat(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", f, err)
		}
		if info.IsDir() || slices.Contains(excluded, f) {
			continue
		}
		result = append(result, f)
	}
	return result, nil
}

func renderFile(workDir, filename string, data map[string]any) error {
	absPath := filepath.Join(workDir, filename)

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	tmpl, err := template.New(filepath.Base(filename)).Funcs(sprig.FuncMap()).Parse(string(content))
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	out, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	execErr := tmpl.Execute(out, data)

	if closeErr := out.Close(); closeErr != nil {
		if execErr != nil {
			return fmt.Errorf("executing template: %w", execErr)
		}
		return fmt.Errorf("closing output file: %w", closeErr)
	}
	if execErr != nil {
		return fmt.Errorf("executing template: %w", execErr)
	}

	slog.Debug("deck file rendered", "file", filename)
	return nil
}
