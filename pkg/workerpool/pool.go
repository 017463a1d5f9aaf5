// Package workerpool bounds goroutine fan-out with backpressure.
//
// A Pool caps how many tasks run concurrently. Submit never blocks: it
// returns ErrPoolFull when the buffer is at capacity, so callers can shed
// or defer load. SubmitWait blocks until a slot opens, which is what batch
// work like the orphan-blob sweep wants.
package workerpool

import (
	"errors"
	"fmt"
	"sync"

	"drivebox/pkg/logger"
)

// ErrPoolFull is returned by Submit when the task buffer is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit/SubmitWait after Shutdown.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
	done  chan struct{}
}

// New creates a pool with size workers and a task buffer of twice that, so
// short bursts queue instead of failing.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{
		tasks: make(chan func(), size*2),
		done:  make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking. Returns ErrPoolFull when the
// buffer is at capacity and ErrPoolClosed after Shutdown.
func (p *Pool) Submit(task func()) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the task is accepted or the pool closes.
func (p *Pool) SubmitWait(task func()) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Shutdown stops intake, runs the queued tasks to completion and releases
// the workers. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.done)
		close(p.tasks)
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		runGuarded(task)
	}
}

// runGuarded keeps a panicking task from killing its worker.
func runGuarded(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panic", "error", fmt.Sprintf("%v", r))
		}
	}()
	task()
}
