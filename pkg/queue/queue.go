// Package queue runs background jobs with retries and failed-job capture.
//
// Jobs are plain structs with a Handle method, registered once at boot and
// dispatched from anywhere:
//
//	type BlobCleanupJob struct{ Key string }
//	func (j *BlobCleanupJob) Handle() error { ... }
//
//	queue.Register("*jobs.BlobCleanupJob", func() queue.Job { return &BlobCleanupJob{} })
//	queue.Dispatch(&BlobCleanupJob{Key: key})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"drivebox/pkg/logger"
	"drivebox/pkg/metrics"
)

// Job is implemented by every queued job.
type Job interface {
	// Handle executes the job; a non-nil error triggers a retry.
	Handle() error
}

// FailedJob captures a job that exhausted its retries.
type FailedJob struct {
	Job      Job
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue transport. The memory driver serves development and
// tests; the Redis driver survives restarts.
type Driver interface {
	Push(payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers with native delayed delivery.
type DelayedDriver interface {
	PushDelayed(payload []byte, delay time.Duration) error
}

// Manager owns the driver, the job-type registry and the failure log.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	maxRetry int
}

var defaultManager = &Manager{
	registry: map[string]func() Job{},
	maxRetry: 3,
	driver:   NewMemoryDriver(),
}

// SetDriver swaps the transport; call before StartWorkers.
func SetDriver(d Driver) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.driver = d
}

// SetMaxRetry sets the retry budget for failing jobs.
func SetMaxRetry(n int) { defaultManager.maxRetry = n }

// Register maps a job type name to its constructor for deserialization.
// The name must match fmt.Sprintf("%T", job) at dispatch time.
func Register(name string, factory func() Job) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.registry[name] = factory
}

type jobEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch pushes job onto the queue for immediate processing.
func Dispatch(job Job) error {
	return defaultManager.push(job, 0)
}

// DispatchAfter pushes job for processing after delay. Drivers with native
// delayed delivery (Redis sorted set) get the payload directly; otherwise a
// goroutine sleeps out the delay, which does not survive a restart.
func DispatchAfter(job Job, delay time.Duration) {
	if delay <= 0 {
		if err := Dispatch(job); err != nil {
			logger.Error("queue: dispatch failed", "error", err)
		}
		return
	}
	if err := defaultManager.push(job, delay); err != nil {
		logger.Error("queue: delayed dispatch failed", "error", err)
	}
}

func (m *Manager) push(job Job, delay time.Duration) error {
	typeName := fmt.Sprintf("%T", job)

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", typeName, err)
	}
	env, err := json.Marshal(jobEnvelope{Type: typeName, Payload: payload})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	m.mu.RLock()
	d := m.driver
	m.mu.RUnlock()

	if delay > 0 {
		if dd, ok := d.(DelayedDriver); ok {
			return dd.PushDelayed(env, delay)
		}
		go func() {
			time.Sleep(delay)
			if err := d.Push(env); err != nil {
				logger.Error("queue: delayed push failed", "error", err)
			}
		}()
		return nil
	}
	return d.Push(env)
}

// StartWorkers launches n workers that process jobs until ctx is cancelled.
func StartWorkers(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		go defaultManager.work(ctx)
	}
	logger.Info("queue: workers started", "count", n)
}

func (m *Manager) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			m.mu.RLock()
			d := m.driver
			m.mu.RUnlock()

			raw, err := d.Pop(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				time.Sleep(500 * time.Millisecond)
				continue
			}
			if raw == nil {
				continue
			}
			m.process(raw)
		}
	}
}

func (m *Manager) process(raw []byte) {
	var env jobEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(job, env.Type)
}

func (m *Manager) runWithRetry(job Job, typeName string) {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if err := job.Handle(); err != nil {
			lastErr = err
			logger.Warn("queue: job failed, retrying",
				"type", typeName, "attempt", attempt, "error", err)
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}
		logger.Info("queue: job processed", "type", typeName)
		metrics.RecordQueueJob(typeName, "success", start)
		return
	}

	m.persistFailed(job, typeName, lastErr, m.maxRetry)
	metrics.RecordQueueJob(typeName, "failed", start)
	logger.Error("queue: job exhausted retries", "type", typeName, "error", lastErr)
}

// FailedJobs returns a snapshot of jobs that exhausted their retries.
func FailedJobs() []FailedJob {
	defaultManager.mu.RLock()
	defer defaultManager.mu.RUnlock()
	out := make([]FailedJob, len(defaultManager.failed))
	copy(out, defaultManager.failed)
	return out
}
