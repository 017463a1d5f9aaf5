package services

import (
	"context"
	"sync/atomic"
	"time"

	"drivebox/app/exceptions"
	"drivebox/app/repositories"
	"drivebox/pkg/collection"
	"drivebox/pkg/logger"
	"drivebox/pkg/metrics"
	"drivebox/pkg/storage"
	"drivebox/pkg/workerpool"
)

// SweepService reconciles the blob store against the metadata table and
// removes blobs nothing references. Deleted-but-restorable files still
// hold their keys, so only true orphans (from uploads that died between
// blob write and metadata insert) qualify.
type SweepService struct {
	files   *repositories.FileRepository
	disk    storage.Disk
	grace   time.Duration
	workers int
}

func NewSweepService(files *repositories.FileRepository, disk storage.Disk, grace time.Duration, workers int) *SweepService {
	if workers < 1 {
		workers = 1
	}
	return &SweepService{files: files, disk: disk, grace: grace, workers: workers}
}

// Run scans the store once and returns how many orphans it removed. Blobs
// younger than the grace period are skipped: their upload may still be
// between the blob write and the metadata insert.
func (s *SweepService) Run(ctx context.Context) (int, error) {
	referenced, err := s.files.AllObjectKeys(ctx)
	if err != nil {
		return 0, err
	}
	objects, err := s.disk.List(ctx, "")
	if err != nil {
		return 0, exceptions.Storage(err)
	}

	cutoff := time.Now().Add(-s.grace)
	orphans := collection.Filter(objects, func(o storage.Object) bool {
		if _, ok := referenced[o.Key]; ok {
			return false
		}
		return o.LastModified.Before(cutoff)
	})
	if len(orphans) == 0 {
		return 0, nil
	}

	pool := workerpool.New(s.workers)
	var swept atomic.Int64
	for _, o := range orphans {
		obj := o
		if err := pool.SubmitWait(func() {
			if err := s.disk.Delete(ctx, obj.Key); err != nil {
				logger.Warn("sweep: delete failed", "key", obj.Key, "error", err)
				return
			}
			swept.Add(1)
			metrics.OrphansSwept.Inc()
		}); err != nil {
			break
		}
	}
	pool.Shutdown()

	n := int(swept.Load())
	logger.Info("sweep: finished",
		"scanned", len(objects), "orphans", len(orphans), "removed", n)
	return n, nil
}
