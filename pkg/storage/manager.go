package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"drivebox/config"
	"drivebox/pkg/metrics"
)

// Connect boots the disk named by STORAGE_DISK ("local", "s3" or
// "memory") and returns it wrapped with latency instrumentation. Call
// once at startup and inject the result wherever blobs are needed.
func Connect() (Disk, error) {
	name := config.StorageDisk()
	d, err := build(name)
	if err != nil {
		return nil, err
	}
	return WithMetrics(d), nil
}

func build(name string) (Disk, error) {
	switch name {
	case "local":
		return NewLocalDisk(config.StorageLocalRoot())
	case "s3":
		return NewS3Disk()
	case "memory":
		return NewMemoryDisk(), nil
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", name)
	}
}

// WithMetrics wraps a disk so every operation feeds the blob-op
// duration histogram, labelled by operation and driver.
func WithMetrics(d Disk) Disk {
	return &instrumentedDisk{Disk: d}
}

type instrumentedDisk struct {
	Disk
}

func (i *instrumentedDisk) Put(ctx context.Context, key string, content []byte) error {
	defer metrics.ObserveBlobOp("put", i.Disk.Name(), time.Now())
	return i.Disk.Put(ctx, key, content)
}

func (i *instrumentedDisk) PutStream(ctx context.Context, key string, r io.Reader, size int64) error {
	defer metrics.ObserveBlobOp("put", i.Disk.Name(), time.Now())
	return i.Disk.PutStream(ctx, key, r, size)
}

func (i *instrumentedDisk) Get(ctx context.Context, key string) ([]byte, error) {
	defer metrics.ObserveBlobOp("get", i.Disk.Name(), time.Now())
	return i.Disk.Get(ctx, key)
}

func (i *instrumentedDisk) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	defer metrics.ObserveBlobOp("get", i.Disk.Name(), time.Now())
	return i.Disk.GetStream(ctx, key)
}

func (i *instrumentedDisk) Delete(ctx context.Context, key string) error {
	defer metrics.ObserveBlobOp("delete", i.Disk.Name(), time.Now())
	return i.Disk.Delete(ctx, key)
}

func (i *instrumentedDisk) List(ctx context.Context, prefix string) ([]Object, error) {
	defer metrics.ObserveBlobOp("list", i.Disk.Name(), time.Now())
	return i.Disk.List(ctx, prefix)
}

func (i *instrumentedDisk) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	defer metrics.ObserveBlobOp("presign", i.Disk.Name(), time.Now())
	return i.Disk.SignedURL(ctx, key, ttl)
}
