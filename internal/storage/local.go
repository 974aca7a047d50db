package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// LocalStorage implements Storage on a filesystem directory.
type LocalStorage struct {
	fs         afero.Fs
	root       string
	publicBase string

	mu sync.Mutex // guards root creation
}

// NewLocalStorage returns a LocalStorage writing under root. publicBase is the
// prefix returned by PublicURL, usually the root-relative path the web server
// maps to root.
func NewLocalStorage(fs afero.Fs, root, publicBase string) *LocalStorage {
	return &LocalStorage{
		fs:         fs,
		root:       filepath.Clean(root),
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Root returns the directory files are written to.
func (s *LocalStorage) Root() string {
	return s.root
}

// Path returns the filesystem path for key.
func (s *LocalStorage) Path(key string) string {
	return filepath.Join(s.root, key)
}

// Save writes reader to a temporary file in the root and renames it into
// place, so a partially written file is never visible under key.
func (s *LocalStorage) Save(ctx context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if err := ValidateKey(key); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	if err := s.ensureRoot(); err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, s.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: reader}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", key, err)
	}
	if err := s.fs.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("chmod %q: %w", key, err)
	}
	if err := s.fs.Rename(tmpName, s.Path(key)); err != nil {
		return fmt.Errorf("rename into %q: %w", key, err)
	}
	committed = true
	return nil
}

// PublicURL returns publicBase + "/" + key.
func (s *LocalStorage) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// ensureRoot creates the root directory if it is missing.
func (s *LocalStorage) ensureRoot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.MkdirAll(s.root, dirMode); err != nil {
		return fmt.Errorf("create upload dir %q: %w", s.root, err)
	}
	return nil
}

// ctxReader stops a copy once the request context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
