package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrNoEdits indicates the model response contained no recognizable file
// content in either the JSON or the heading fallback format.
var ErrNoEdits = errors.New("no file edits found in response")

// EditSet is the parsed output of a generation call: full replacement
// content per file, plus the model's own description of what it did.
type EditSet struct {
	Files       map[string]string
	Summary     string
	ChangesMade []string
}

var (
	jsonFenceRe   = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")
	codeFenceRe   = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_+-]*)\\s*\\n(.*?)```")
	fileHeadingRe = regexp.MustCompile(`(?m)^#{2,4}\s+` + "`?" + `((?:src/)?[A-Za-z0-9_./-]+\.[ch])` + "`?" + `\s*$`)
)

type editPayload struct {
	Files       map[string]string `json:"files"`
	Summary     string            `json:"summary"`
	ChangesMade []string          `json:"changes_made"`
}

// ParseEditResponse extracts file edits from a model response. It prefers
// a ```json fenced object, then a bare JSON object, then falls back to
// markdown file headings each followed by a fenced code block.
func ParseEditResponse(text string) (*EditSet, error) {
	if set, err := parseJSONEdits(text); err == nil {
		return set, nil
	}
	if set := parseHeadingEdits(text); set != nil {
		return set, nil
	}
	return nil, ErrNoEdits
}

func parseJSONEdits(text string) (*EditSet, error) {
	candidates := []string{}
	for _, m := range jsonFenceRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	// Some models skip the fence entirely.
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			candidates = append(candidates, text[start:end+1])
		}
	}
	for _, raw := range candidates {
		var payload editPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			continue
		}
		if len(payload.Files) == 0 {
			continue
		}
		return &EditSet{
			Files:       payload.Files,
			Summary:     payload.Summary,
			ChangesMade: payload.ChangesMade,
		}, nil
	}
	return nil, ErrNoEdits
}

// parseHeadingEdits handles the `### src/foo.c` + fenced block format some
// models produce despite instructions to emit JSON.
func parseHeadingEdits(text string) *EditSet {
	headings := fileHeadingRe.FindAllStringSubmatchIndex(text, -1)
	if len(headings) == 0 {
		return nil
	}
	files := make(map[string]string)
	for i, h := range headings {
		path := text[h[2]:h[3]]
		sectionEnd := len(text)
		if i+1 < len(headings) {
			sectionEnd = headings[i+1][0]
		}
		section := text[h[1]:sectionEnd]
		block := codeFenceRe.FindStringSubmatch(section)
		if block == nil {
			continue
		}
		files[path] = block[1]
	}
	if len(files) == 0 {
		return nil
	}
	return &EditSet{
		Files:   files,
		Summary: fmt.Sprintf("Updated %d file(s)", len(files)),
	}
}

// ParseFileSelection parses a narrower response: a JSON array of file
// paths, fenced or bare. Paths not present in available are dropped. An
// empty or unparseable result returns nil so the caller can fail open.
func ParseFileSelection(text string, available []string) []string {
	known := make(map[string]bool, len(available))
	for _, f := range available {
		known[f] = true
	}

	raw := text
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	}
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}

	var paths []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &paths); err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var selected []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if known[p] && !seen[p] {
			seen[p] = true
			selected = append(selected, p)
		}
	}
	sort.Strings(selected)
	return selected
}
