package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MemoryDisk keeps blobs in a process-local map. Tests and demo setups
// use it to avoid touching the filesystem or a bucket.
type MemoryDisk struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data    []byte
	modTime time.Time
}

// NewMemoryDisk returns an empty in-memory disk.
func NewMemoryDisk() *MemoryDisk {
	return &MemoryDisk{objects: map[string]memObject{}}
}

func (d *MemoryDisk) Name() string { return "memory" }

func (d *MemoryDisk) Put(_ context.Context, key string, content []byte) error {
	cp := make([]byte, len(content))
	copy(cp, content)
	d.mu.Lock()
	d.objects[key] = memObject{data: cp, modTime: time.Now()}
	d.mu.Unlock()
	return nil
}

func (d *MemoryDisk) PutStream(ctx context.Context, key string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("storage/memory: read: %w", err)
	}
	return d.Put(ctx, key, data)
}

func (d *MemoryDisk) Get(_ context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	obj, ok := d.objects[key]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage/memory: get %s: not found", key)
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, nil
}

func (d *MemoryDisk) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := d.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (d *MemoryDisk) Exists(_ context.Context, key string) (bool, error) {
	d.mu.RLock()
	_, ok := d.objects[key]
	d.mu.RUnlock()
	return ok, nil
}

func (d *MemoryDisk) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.objects, key)
	d.mu.Unlock()
	return nil
}

func (d *MemoryDisk) List(_ context.Context, prefix string) ([]Object, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Object
	for key, obj := range d.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, Object{Key: key, Size: int64(len(obj.data)), LastModified: obj.modTime})
		}
	}
	return out, nil
}

func (d *MemoryDisk) SignedURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrSignedURLUnsupported
}

// Touch backdates a blob's modification time. Sweep tests use it to age
// objects past the grace period.
func (d *MemoryDisk) Touch(key string, t time.Time) {
	d.mu.Lock()
	if obj, ok := d.objects[key]; ok {
		obj.modTime = t
		d.objects[key] = obj
	}
	d.mu.Unlock()
}

// Len reports how many blobs the disk currently holds.
func (d *MemoryDisk) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.objects)
}
