package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	writeProjectFile(t, dir, "src/main.c", "int main(void){return 0;}\n")
	writeProjectFile(t, dir, "metadata.json", `{"name":"test","status":"scaffolded"}`)
	return NewStore(dir), dir
}

func writeProjectFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readProjectFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	store, _ := newTestStore(t)

	first, err := store.Create("first")
	require.NoError(t, err)
	second, err := store.Create("second")
	require.NoError(t, err)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, 2, first.FileCount)
}

func TestIDsNeverReusedAfterDeletion(t *testing.T) {
	store, dir := newTestStore(t)

	_, err := store.Create("first")
	require.NoError(t, err)
	second, err := store.Create("second")
	require.NoError(t, err)

	// Simulate an index rewritten without the first entry.
	infos, err := store.List()
	require.NoError(t, err)
	require.NoError(t, store.writeIndex(infos[1:]))
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "snapshots", "1")))

	third, err := store.Create("third")
	require.NoError(t, err)
	assert.Equal(t, second.ID+1, third.ID)
}

func TestRestoreRecoversExactState(t *testing.T) {
	store, dir := newTestStore(t)

	info, err := store.Create("before edit")
	require.NoError(t, err)

	writeProjectFile(t, dir, "src/main.c", "int main(void){return 1;}\n")
	writeProjectFile(t, dir, "src/new.c", "void added(void){}\n")

	require.NoError(t, store.Restore(info.ID))

	assert.Equal(t, "int main(void){return 0;}\n", readProjectFile(t, dir, "src/main.c"))
	_, err = os.Stat(filepath.Join(dir, "src", "new.c"))
	assert.True(t, os.IsNotExist(err), "file absent from the snapshot should be removed")
}

func TestRestoreCreatesBackupFirst(t *testing.T) {
	store, dir := newTestStore(t)

	info, err := store.Create("original")
	require.NoError(t, err)

	writeProjectFile(t, dir, "src/main.c", "modified\n")
	require.NoError(t, store.Restore(info.ID))

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	backup := infos[1]
	assert.Greater(t, backup.ID, info.ID)
	assert.Contains(t, backup.Description, "auto-backup")

	// The backup holds the pre-restore state, so the restore is undoable.
	files, err := store.SourceFiles(backup.ID)
	require.NoError(t, err)
	assert.Equal(t, "modified\n", files["src/main.c"])
}

func TestRestoreUnknownID(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.Restore(99)
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}

func TestSourceFiles(t *testing.T) {
	store, dir := newTestStore(t)
	writeProjectFile(t, dir, "src/util.h", "void u(void);\n")

	info, err := store.Create("snap")
	require.NoError(t, err)

	files, err := store.SourceFiles(info.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"src/main.c": "int main(void){return 0;}\n",
		"src/util.h": "void u(void);\n",
	}, files)
}

func TestListEmptyStore(t *testing.T) {
	store := NewStore(t.TempDir())
	infos, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}
