package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrSnapshotNotFound indicates the requested snapshot ID is not in the
// index.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Info is one entry in the snapshot index.
type Info struct {
	ID          int       `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	FileCount   int       `json:"file_count"`
}

// Store manages point-in-time copies of a project's generated state under
// <project>/snapshots/. IDs increase monotonically and are never reused,
// even after deletions.
type Store struct {
	projectDir string
}

// captured names the project entries included in a snapshot. Everything
// else (build output, the snapshots directory itself) stays out.
var captured = []string{"src", "metadata.json", "_schema.json", "data"}

// NewStore returns a store rooted at projectDir.
func NewStore(projectDir string) *Store {
	return &Store{projectDir: projectDir}
}

func (s *Store) root() string      { return filepath.Join(s.projectDir, "snapshots") }
func (s *Store) indexPath() string { return filepath.Join(s.root(), "index.json") }

// List returns all snapshots sorted by ascending ID.
func (s *Store) List() ([]Info, error) {
	infos, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Create captures the current project state under a new snapshot ID and
// returns its info.
func (s *Store) Create(description string) (Info, error) {
	infos, err := s.readIndex()
	if err != nil {
		return Info{}, err
	}

	id := 1
	for _, info := range infos {
		if info.ID >= id {
			id = info.ID + 1
		}
	}

	dest := filepath.Join(s.root(), fmt.Sprintf("%d", id))
	if err := os.MkdirAll(dest, 0755); err != nil {
		return Info{}, fmt.Errorf("creating snapshot directory: %w", err)
	}

	fileCount := 0
	for _, name := range captured {
		src := filepath.Join(s.projectDir, name)
		n, err := copyEntry(src, filepath.Join(dest, name))
		if err != nil {
			os.RemoveAll(dest)
			return Info{}, fmt.Errorf("capturing %s: %w", name, err)
		}
		fileCount += n
	}

	info := Info{
		ID:          id,
		Timestamp:   time.Now().UTC(),
		Description: description,
		FileCount:   fileCount,
	}
	infos = append(infos, info)
	if err := s.writeIndex(infos); err != nil {
		os.RemoveAll(dest)
		return Info{}, err
	}
	return info, nil
}

// Restore puts the project back into the state captured by snapshot id.
// A backup snapshot of the current state is created first, so a restore
// is itself reversible.
func (s *Store) Restore(id int) error {
	infos, err := s.readIndex()
	if err != nil {
		return err
	}
	var target *Info
	for i := range infos {
		if infos[i].ID == id {
			target = &infos[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %d", ErrSnapshotNotFound, id)
	}

	if _, err := s.Create(fmt.Sprintf("auto-backup before restoring snapshot %d", id)); err != nil {
		return fmt.Errorf("creating backup snapshot: %w", err)
	}

	source := filepath.Join(s.root(), fmt.Sprintf("%d", id))
	for _, name := range captured {
		dest := filepath.Join(s.projectDir, name)
		src := filepath.Join(source, name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			// Entry absent from the snapshot means it did not exist
			// then; remove the current one.
			if err := os.RemoveAll(dest); err != nil {
				return fmt.Errorf("removing %s: %w", name, err)
			}
			continue
		}
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
		if _, err := copyEntry(src, dest); err != nil {
			return fmt.Errorf("restoring %s: %w", name, err)
		}
	}
	return nil
}

// Get returns the info for a single snapshot.
func (s *Store) Get(id int) (Info, error) {
	infos, err := s.readIndex()
	if err != nil {
		return Info{}, err
	}
	for _, info := range infos {
		if info.ID == id {
			return info, nil
		}
	}
	return Info{}, fmt.Errorf("%w: %d", ErrSnapshotNotFound, id)
}

// SourceFiles reads the src/ tree captured by snapshot id into a map
// keyed by project-relative path.
func (s *Store) SourceFiles(id int) (map[string]string, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	root := filepath.Join(s.root(), fmt.Sprintf("%d", id), "src")
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filepath.Dir(root), path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %d sources: %w", id, err)
	}
	return files, nil
}

func (s *Store) readIndex() ([]Info, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot index: %w", err)
	}
	var infos []Info
	if err := json.Unmarshal(data, &infos); err != nil {
		return nil, fmt.Errorf("parsing snapshot index: %w", err)
	}
	return infos, nil
}

func (s *Store) writeIndex(infos []Info) error {
	if err := os.MkdirAll(s.root(), 0755); err != nil {
		return fmt.Errorf("creating snapshots directory: %w", err)
	}
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling snapshot index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot index: %w", err)
	}
	return nil
}

// copyEntry copies a file or directory tree and returns the number of
// files copied. A missing source copies nothing.
func copyEntry(src, dest string) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if !info.IsDir() {
		return 1, copyFile(src, dest, info.Mode())
	}

	count := 0
	err = filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		count++
		return copyFile(path, target, fi.Mode())
	})
	return count, err
}

func copyFile(src, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
