package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// localDisk stores blobs as files under a root directory. Object keys map
// to slash-separated paths below the root.
type localDisk struct {
	root string
}

// NewLocalDisk returns a Disk rooted at dir, creating it if needed.
func NewLocalDisk(dir string) (Disk, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage/local: getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir root: %w", err)
	}
	return &localDisk{root: dir}, nil
}

func (d *localDisk) Name() string { return "local" }

func (d *localDisk) abs(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

// ── Write ─────────────────────────────────────────────────────────────────────

func (d *localDisk) Put(ctx context.Context, key string, content []byte) error {
	return d.PutStream(ctx, key, bytes.NewReader(content), int64(len(content)))
}

func (d *localDisk) PutStream(_ context.Context, key string, r io.Reader, _ int64) error {
	full := d.abs(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", key, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	return nil
}

// ── Read ──────────────────────────────────────────────────────────────────────

func (d *localDisk) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(d.abs(key))
	if err != nil {
		return nil, fmt.Errorf("storage/local: get %s: %w", key, err)
	}
	return data, nil
}

func (d *localDisk) GetStream(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(d.abs(key))
	if err != nil {
		return nil, fmt.Errorf("storage/local: open %s: %w", key, err)
	}
	return f, nil
}

func (d *localDisk) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(d.abs(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("storage/local: stat %s: %w", key, err)
}

// ── Delete ────────────────────────────────────────────────────────────────────

func (d *localDisk) Delete(_ context.Context, key string) error {
	err := os.Remove(d.abs(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

// ── List ──────────────────────────────────────────────────────────────────────

func (d *localDisk) List(_ context.Context, prefix string) ([]Object, error) {
	base := d.abs(prefix)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, nil
	}
	var out []Object
	err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		out = append(out, Object{
			Key:          filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage/local: list %s: %w", prefix, err)
	}
	return out, nil
}

func (d *localDisk) SignedURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrSignedURLUnsupported
}
