package symbols

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIndex(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "context"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "context", "symbols.json"), []byte(content), 0644))
}

func TestLoadFromIndexFile(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, `{
		"files": {
			"src/main.c":    {"type": "implementation", "lines": 40, "implements": ["main"]},
			"src/sprites.c": {"type": "implementation", "lines": 120, "implements": ["draw_sprite"], "constants": ["MAX_SPRITES"]},
			"src/sprites.h": {"type": "header", "declares": ["draw_sprite"]}
		},
		"call_graph": {
			"draw_sprite": {"in": "src/sprites.c", "called_by": ["main"]}
		}
	}`)

	idx, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.c", "src/sprites.c"}, idx.ImplementationFiles())
	assert.Equal(t, []string{"src/sprites.h"}, idx.HeaderFiles())
	assert.Equal(t, "src/sprites.c", idx.CallGraph["draw_sprite"].In)
}

func TestLoadFallsBackToListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	for _, name := range []string{"main.c", "audio.c", "audio.h", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "src", name), []byte("x"), 0644))
	}

	idx, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/audio.c", "src/main.c"}, idx.ImplementationFiles())
	assert.Equal(t, []string{"src/audio.h"}, idx.HeaderFiles())
}

func TestLoadMissingProject(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestToPrompt(t *testing.T) {
	idx := &Index{Files: map[string]FileSymbols{
		"src/main.c": {Type: "implementation", Lines: 10, Implements: []string{"main"}},
		"src/map.c":  {Type: "implementation", Structs: map[string]StructInfo{"tile_t": {Kind: "struct"}}},
	}}

	out := idx.ToPrompt()
	assert.Contains(t, out, "src/main.c (10 lines)")
	assert.Contains(t, out, "implements: main")
	assert.Contains(t, out, "types: tile_t")
	// Deterministic order: main.c before map.c.
	assert.Less(t, strings.Index(out, "src/main.c"), strings.Index(out, "src/map.c"))
}
