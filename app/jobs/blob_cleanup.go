// Package jobs holds the queue job types. Each job is a small JSON-codable
// struct with a Handle method; Register wires the factories so persisted
// envelopes can be decoded after a restart.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"drivebox/pkg/queue"
	"drivebox/pkg/storage"
)

var (
	diskMu sync.RWMutex
	disk   storage.Disk
)

// UseDisk points jobs at the active blob store. Called once at boot,
// before workers start.
func UseDisk(d storage.Disk) {
	diskMu.Lock()
	disk = d
	diskMu.Unlock()
}

func currentDisk() storage.Disk {
	diskMu.RLock()
	defer diskMu.RUnlock()
	return disk
}

// Register adds every job factory to the queue registry.
func Register() {
	queue.Register("*jobs.BlobCleanupJob", func() queue.Job { return &BlobCleanupJob{} })
	queue.Register("*jobs.WelcomeEmailJob", func() queue.Job { return &WelcomeEmailJob{} })
}

// BlobCleanupJob deletes one stored blob. It is dispatched when an upload
// wrote its bytes but the metadata insert failed, so the blob would
// otherwise sit unreferenced until the sweep finds it.
type BlobCleanupJob struct {
	Key string `json:"key"`
}

func (j *BlobCleanupJob) Handle() error {
	d := currentDisk()
	if d == nil {
		return errors.New("jobs: no blob store configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return d.Delete(ctx, j.Key)
}
