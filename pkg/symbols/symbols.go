package symbols

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StructInfo describes a struct or enum found in a source file.
type StructInfo struct {
	Kind   string   `json:"kind"`
	Fields []string `json:"fields,omitempty"`
}

// FileSymbols summarizes what one source file declares and implements.
type FileSymbols struct {
	Type       string                `json:"type"`
	Lines      int                   `json:"lines"`
	Includes   []string              `json:"includes,omitempty"`
	Structs    map[string]StructInfo `json:"structs,omitempty"`
	Declares   []string              `json:"declares,omitempty"`
	Implements []string              `json:"implements,omitempty"`
	Constants  []string              `json:"constants,omitempty"`
}

// CallGraphEntry records which file a function lives in and its edges.
type CallGraphEntry struct {
	In       string   `json:"in"`
	Calls    []string `json:"calls,omitempty"`
	CalledBy []string `json:"called_by,omitempty"`
}

// Index is the project symbol index, loaded from context/symbols.json.
// It gives the file selector enough structure to pick relevant files
// without reading every source file in full.
type Index struct {
	Files     map[string]FileSymbols    `json:"files"`
	CallGraph map[string]CallGraphEntry `json:"call_graph,omitempty"`
}

const indexRelPath = "context/symbols.json"

// Load reads the symbol index from projectDir. When the index file is
// missing or unreadable a minimal index is synthesized from the src
// directory listing so selection can still run.
func Load(projectDir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(projectDir, indexRelPath))
	if err != nil {
		if os.IsNotExist(err) {
			return fromListing(projectDir)
		}
		return nil, fmt.Errorf("reading symbol index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing symbol index: %w", err)
	}
	if idx.Files == nil {
		idx.Files = map[string]FileSymbols{}
	}
	return &idx, nil
}

func fromListing(projectDir string) (*Index, error) {
	entries, err := os.ReadDir(filepath.Join(projectDir, "src"))
	if err != nil {
		return nil, fmt.Errorf("listing src directory: %w", err)
	}
	idx := &Index{Files: map[string]FileSymbols{}}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".c" && ext != ".h" {
			continue
		}
		kind := "implementation"
		if ext == ".h" {
			kind = "header"
		}
		idx.Files["src/"+name] = FileSymbols{Type: kind}
	}
	return idx, nil
}

// ImplementationFiles returns all .c file paths in the index, sorted.
func (idx *Index) ImplementationFiles() []string {
	var files []string
	for path, fs := range idx.Files {
		if fs.Type == "header" || strings.HasSuffix(path, ".h") {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// HeaderFiles returns all .h file paths in the index, sorted.
func (idx *Index) HeaderFiles() []string {
	var files []string
	for path, fs := range idx.Files {
		if fs.Type == "header" || strings.HasSuffix(path, ".h") {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files
}

// ToPrompt renders a compact text view of the index for the selection
// prompt: one line per file with its declared and implemented symbols.
func (idx *Index) ToPrompt() string {
	var paths []string
	for p := range idx.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		fs := idx.Files[p]
		b.WriteString(p)
		if fs.Lines > 0 {
			fmt.Fprintf(&b, " (%d lines)", fs.Lines)
		}
		b.WriteString("\n")
		if len(fs.Implements) > 0 {
			fmt.Fprintf(&b, "  implements: %s\n", strings.Join(fs.Implements, ", "))
		}
		if len(fs.Declares) > 0 {
			fmt.Fprintf(&b, "  declares: %s\n", strings.Join(fs.Declares, ", "))
		}
		if len(fs.Structs) > 0 {
			var names []string
			for n := range fs.Structs {
				names = append(names, n)
			}
			sort.Strings(names)
			fmt.Fprintf(&b, "  types: %s\n", strings.Join(names, ", "))
		}
		if len(fs.Constants) > 0 {
			fmt.Fprintf(&b, "  constants: %s\n", strings.Join(fs.Constants, ", "))
		}
	}
	return b.String()
}
