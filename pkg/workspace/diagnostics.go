package workspace

import (
	"regexp"
	"sort"
)

var diagnosticFileRe = regexp.MustCompile(`(src/[A-Za-z0-9_]+\.[ch]):\d+:`)

// FilesFromDiagnostics scrapes compiler output for file references of the
// form src/<name>.c:NN: and returns the ones present in known, sorted and
// deduplicated. It lets a retry pull in files the compiler complained
// about even though the narrower never selected them.
func FilesFromDiagnostics(output string, known []string) []string {
	knownSet := make(map[string]bool, len(known))
	for _, f := range known {
		knownSet[f] = true
	}

	seen := make(map[string]bool)
	var files []string
	for _, m := range diagnosticFileRe.FindAllStringSubmatch(output, -1) {
		path := m[1]
		if knownSet[path] && !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files
}
