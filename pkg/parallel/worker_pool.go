// Package parallel runs independent units of work on a bounded pool of
// goroutines.
package parallel

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/dd0wney/cluso-atlas/pkg/logging"
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	logger    logging.Logger
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// MaxWorkers bounds the pool size. Each workspace owns a whole graph, so
// more workers than this only adds memory pressure.
const MaxWorkers = 1024

// NewWorkerPool creates a new worker pool with specified number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewWorkerPool(workers int, logger logging.Logger) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2), // Buffer for 2x workers
		logger:    logger,
	}

	pool.start()
	return pool, nil
}

// start initializes the worker goroutines
func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// A panicking task must not take the worker down with it
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.logger.Error("worker panic recovered",
						logging.Any("panic", r),
						logging.String("stack", string(debug.Stack())))
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the worker pool
// Returns false if the pool is closed, true if task was submitted
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	// Safe to send because we hold the lock and pool is not closed
	wp.taskQueue <- task
	return true
}

// Close shuts down the worker pool and waits for queued tasks
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// ForEach calls fn(ctx, i) for i in [0, n) on up to workers goroutines and
// waits for all of them. Indices not yet started when ctx is canceled are
// still called, so fn sees the canceled context and can record it.
func ForEach(ctx context.Context, workers, n int, logger logging.Logger, fn func(ctx context.Context, i int)) error {
	if workers > n {
		workers = n
	}
	pool, err := NewWorkerPool(workers, logger)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		pool.Submit(func() { fn(ctx, i) })
	}
	pool.Close()
	return nil
}
