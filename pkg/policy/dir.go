package policy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dd0wney/nodesel-dagger/pkg/gbrank"
)

// DirStore keeps artifacts in a local directory.
type DirStore struct {
	Dir string
}

// NewDirStore creates the directory if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create policy directory: %w", err)
	}
	return &DirStore{Dir: dir}, nil
}

// Path returns the artifact path of an iteration.
func (s *DirStore) Path(iter int) string {
	return filepath.Join(s.Dir, FileName(iter))
}

// Save writes to a temporary file and renames it into place, so a reader
// never sees a partial artifact.
func (s *DirStore) Save(_ context.Context, iter int, b *gbrank.Booster) error {
	tmp, err := os.CreateTemp(s.Dir, ".policy-*")
	if err != nil {
		return fmt.Errorf("save policy %d: %w", iter, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := b.Save(w); err != nil {
		tmp.Close()
		return fmt.Errorf("save policy %d: %w", iter, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("save policy %d: %w", iter, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("save policy %d: %w", iter, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save policy %d: %w", iter, err)
	}
	return os.Rename(tmp.Name(), s.Path(iter))
}

// Load reads the artifact of an iteration.
func (s *DirStore) Load(_ context.Context, iter int) (*gbrank.Booster, error) {
	f, err := os.Open(s.Path(iter))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("policy %d: %w", iter, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := gbrank.Load(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("policy %d: %w", iter, err)
	}
	return b, nil
}

// Latest scans the directory for the highest iteration.
func (s *DirStore) Latest(_ context.Context) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return latestOf(names)
}
