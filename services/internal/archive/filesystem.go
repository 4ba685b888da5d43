package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// Filesystem stores uploads as files under a root directory.
type Filesystem struct {
	root string
}

// NewFilesystem returns a Filesystem rooted at root, creating it if needed.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "./archive"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Filesystem{root: root}, nil
}

func (s *Filesystem) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "archive %s", key)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", errors.Wrapf(err, "archive %s", key)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
