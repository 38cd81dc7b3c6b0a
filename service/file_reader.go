package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pysmell/pysmell/domain"
)

// FileReader discovers and reads the Python sources of a project
type FileReader struct {
	excludePatterns []string
}

// NewFileReader creates a file reader. Exclude patterns use doublestar
// globs matched against the path relative to the project root.
func NewFileReader(excludePatterns []string) *FileReader {
	return &FileReader{excludePatterns: excludePatterns}
}

// CollectPythonFiles finds every Python file under root, returned as
// sorted root-relative paths.
func (f *FileReader) CollectPythonFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot access %s", root), err)
	}
	if !info.IsDir() {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("%s is not a directory", root), nil)
	}

	var files []string
	walkFunc := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// unreadable entries are skipped, not fatal
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") && path != root {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() && shouldSkipDirectory(info.Name()) {
			return filepath.SkipDir
		}
		if info.IsDir() || !isPythonFile(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if f.excluded(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	}

	if err := filepath.Walk(root, walkFunc); err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// ReadFile reads one source file addressed relative to root
func (f *FileReader) ReadFile(root, rel string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot read %s", rel), err)
	}
	return content, nil
}

func (f *FileReader) excluded(rel string) bool {
	for _, pattern := range f.excludePatterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func isPythonFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".py"
}

// shouldSkipDirectory filters directories that never hold project sources
func shouldSkipDirectory(name string) bool {
	skipDirs := []string{
		"__pycache__",
		"node_modules",
		"venv",
		"env",
		"build",
		"dist",
		"site-packages",
		"*.egg-info",
	}
	lower := strings.ToLower(name)
	for _, skip := range skipDirs {
		if matched, _ := filepath.Match(skip, lower); matched {
			return true
		}
	}
	return false
}

// ModuleName converts a root-relative file path to its dotted module
// path. A package marker pkg/__init__.py names the package itself.
func ModuleName(rel string) string {
	trimmed := strings.TrimSuffix(filepath.ToSlash(rel), ".py")
	dotted := strings.ReplaceAll(trimmed, "/", ".")
	if cut := strings.TrimSuffix(dotted, ".__init__"); cut != dotted {
		return cut
	}
	return dotted
}
