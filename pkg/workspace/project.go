package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gbforge/gbforge/pkg/types"
)

// Project is a target source tree: a directory containing src/ with C
// sources and headers, a Makefile, and the workflow's bookkeeping
// directories (context/, snapshots/).
type Project struct {
	Dir string
}

// Open validates that dir looks like a buildable project and returns it.
func Open(dir string) (*Project, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening project: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening project: %s is not a directory", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "src")); err != nil {
		return nil, fmt.Errorf("project %s has no src directory: %w", dir, err)
	}
	return &Project{Dir: dir}, nil
}

// SourceFiles returns all tracked .c and .h paths under src/, relative to
// the project root and sorted. Ignored files are skipped.
func (p *Project) SourceFiles() ([]string, error) {
	rules := ignoreRules(p.Dir)
	var files []string
	root := filepath.Join(p.Dir, "src")
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".c" && ext != ".h" {
			return nil
		}
		rel, err := filepath.Rel(p.Dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rules.MatchesPath(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning source files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// ReadFiles reads the given relative paths into a map. Missing files are
// skipped rather than failing the whole read.
func (p *Project) ReadFiles(paths []string) (map[string]string, error) {
	contents := make(map[string]string, len(paths))
	for _, rel := range paths {
		data, err := os.ReadFile(filepath.Join(p.Dir, filepath.FromSlash(rel)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		contents[rel] = string(data)
	}
	return contents, nil
}

// WriteFile writes content to the relative path, creating parent
// directories as needed, and reports whether the file was created or
// modified.
func (p *Project) WriteFile(rel, content string) (types.ChangeKind, error) {
	if err := validateRelPath(rel); err != nil {
		return "", err
	}
	abs := filepath.Join(p.Dir, filepath.FromSlash(rel))
	kind := types.ChangeModified
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		kind = types.ChangeCreated
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", rel, err)
	}
	return kind, nil
}

func validateRelPath(rel string) error {
	if rel == "" {
		return fmt.Errorf("empty file path")
	}
	if filepath.IsAbs(rel) {
		return fmt.Errorf("absolute path not allowed: %s", rel)
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("path escapes project root: %s", rel)
	}
	return nil
}
