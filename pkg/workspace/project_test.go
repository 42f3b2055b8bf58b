package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbforge/gbforge/pkg/types"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	p, err := Open(dir)
	require.NoError(t, err)
	return p
}

func TestOpenRejectsMissingSrc(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestSourceFiles(t *testing.T) {
	p := newTestProject(t)
	for name, content := range map[string]string{
		"src/main.c":    "int main(void){}\n",
		"src/sprites.h": "void draw(void);\n",
		"src/audio.c":   "\n",
		"src/notes.md":  "not source\n",
	} {
		_, err := p.WriteFile(name, content)
		require.NoError(t, err)
	}

	files, err := p.SourceFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/audio.c", "src/main.c", "src/sprites.h"}, files)
}

func TestReadFilesSkipsMissing(t *testing.T) {
	p := newTestProject(t)
	_, err := p.WriteFile("src/main.c", "x\n")
	require.NoError(t, err)

	contents, err := p.ReadFiles([]string{"src/main.c", "src/ghost.c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"src/main.c": "x\n"}, contents)
}

func TestWriteFileReportsKind(t *testing.T) {
	p := newTestProject(t)

	kind, err := p.WriteFile("src/new.c", "a\n")
	require.NoError(t, err)
	assert.Equal(t, types.ChangeCreated, kind)

	kind, err = p.WriteFile("src/new.c", "b\n")
	require.NoError(t, err)
	assert.Equal(t, types.ChangeModified, kind)
}

func TestWriteFileRejectsEscapingPaths(t *testing.T) {
	p := newTestProject(t)

	for _, path := range []string{"../outside.c", "src/../../etc/passwd", "/abs/path.c", ""} {
		_, err := p.WriteFile(path, "x")
		assert.Error(t, err, "path %q should be rejected", path)
	}
}
