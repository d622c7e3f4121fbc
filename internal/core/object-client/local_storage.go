package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdave123-py/Docshelf/internal/core"
)

var _ core.ObjectClient = (*LocalClient)(nil)

// LocalClient stores objects as files under a root directory. Locations are
// absolute file paths.
type LocalClient struct {
	root string
}

func NewLocalClient(root string) (*LocalClient, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalClient{root: abs}, nil
}

// Root is the absolute upload directory.
func (c *LocalClient) Root() string { return c.root }

// Put writes data in full to root/key, creating parent directories. It never
// replaces an existing file.
func (c *LocalClient) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := c.resolve(filepath.Join(c.root, filepath.FromSlash(key)))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("%w: %s", core.ErrObjectExists, key)
	}
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close file: %w", err)
	}
	return full, nil
}

// Open returns core.ErrNotFound when the file is missing. A location outside
// the root (a row written under an earlier UPLOAD_DIR) counts as missing.
func (c *LocalClient) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := c.resolve(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not under the upload root", core.ErrNotFound, location)
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: file not found on disk", core.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Delete tolerates missing files. Locations outside the root are left alone
// and treated as already gone.
func (c *LocalClient) Delete(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := c.resolve(location)
	if err != nil {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (c *LocalClient) Walk(ctx context.Context, fn func(location string, modified time.Time) error) error {
	return filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(p, info.ModTime())
	})
}

// resolve rejects locations outside the root.
func (c *LocalClient) resolve(location string) (string, error) {
	full := filepath.Clean(location)
	if !filepath.IsAbs(full) {
		full = filepath.Join(c.root, full)
	}
	rel, err := filepath.Rel(c.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: location %q outside upload root", core.ErrValidation, location)
	}
	return full, nil
}
