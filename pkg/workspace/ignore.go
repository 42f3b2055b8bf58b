package workspace

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreRules builds the ignore matcher for a project: tool-internal
// directories first, then the project's own .gitignore, then common
// artifact patterns.
func ignoreRules(rootDir string) *ignore.GitIgnore {
	allLines := []string{
		".gbforge/",
		".gbforge/*",
		"snapshots/",
		"context/",
	}

	if content, err := os.ReadFile(filepath.Join(rootDir, ".gitignore")); err == nil {
		allLines = append(allLines, strings.Split(string(content), "\n")...)
	}

	allLines = append(allLines,
		".git/",
		"build/",
		"obj/",
		"*.o",
		"*.gb",
		"*.gbc",
		"*.map",
		"*.sym",
		"*.bak",
		"*.tmp",
		"*.log",
	)

	var filtered []string
	for _, line := range allLines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			filtered = append(filtered, line)
		}
	}
	return ignore.CompileIgnoreLines(filtered...)
}
