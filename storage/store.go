// Package storage writes rendered and signed documents under a root
// directory. Writes are atomic and a path can have one writer at a time.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/locks/keyonlylocks"
)

// Conf - config/.storage.json
type Conf struct {
	Root     string `json:"root"`      // relative paths are resolved against the app root
	DirPerm  uint32 `json:"dir_perm"`  // default 0o755
	FilePerm uint32 `json:"file_perm"` // default 0o644
}

type Store struct {
	root     string
	dirPerm  os.FileMode
	filePerm os.FileMode
	locks    keyonlylocks.Set
	log      zerolog.Logger
}

func New(c Conf, log zerolog.Logger) (*Store, error) {
	if c.Root == "" {
		return nil, fmt.Errorf("storage root is empty")
	}
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, err
	}
	s := &Store{root: root, dirPerm: 0o755, filePerm: 0o644, log: log}
	if c.DirPerm != 0 {
		s.dirPerm = os.FileMode(c.DirPerm)
	}
	if c.FilePerm != 0 {
		s.filePerm = os.FileMode(c.FilePerm)
	}
	return s, nil
}

func (s *Store) Root() string {
	return s.root
}

// Abs resolves a slash-separated relative path under the root. Paths that
// would leave the root are rejected.
func (s *Store) Abs(rel string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the storage root", rel)
	}
	return p, nil
}

// Write stores data at rel and returns the absolute path. Parent directories
// are created as needed. The file appears complete or not at all. A
// concurrent Write to the same path fails with PathBusy.
func (s *Store) Write(ctx context.Context, rel string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.Abs(rel)
	if err != nil {
		return "", err
	}
	release, ok := s.locks.TryAcquire(p)
	if !ok {
		return "", errs.PathBusy(p)
	}
	defer release()

	if err = os.MkdirAll(filepath.Dir(p), s.dirPerm); err != nil {
		return "", err
	}
	if err = writeAtomic(p, data, s.filePerm); err != nil {
		return "", err
	}
	s.log.Debug().Str("path", p).Int("bytes", len(data)).Msg("[INFO] document stored")
	return p, nil
}

func (s *Store) Read(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.Abs(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (s *Store) Exists(rel string) bool {
	p, err := s.Abs(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// over the target.
func writeAtomic(p string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}
