package parallel

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/cluso-atlas/pkg/logging"
)

// TestWorkerPoolBasicOperations tests basic worker pool functionality
func TestWorkerPoolBasicOperations(t *testing.T) {
	pool, err := NewWorkerPool(4, nil)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}

	executed := false
	if !pool.Submit(func() { executed = true }) {
		t.Error("Task submission failed")
	}

	pool.Close()

	if !executed {
		t.Error("Task was not executed")
	}
	if pool.Submit(func() {}) {
		t.Error("Expected submission to a closed pool to fail")
	}
}

func TestWorkerPoolSize(t *testing.T) {
	tests := []struct {
		requested int
		want      int
		wantErr   bool
	}{
		{-5, 1, false},
		{0, 1, false},
		{8, 8, false},
		{MaxWorkers, MaxWorkers, false},
		{MaxWorkers + 1, 0, true},
	}

	for _, tt := range tests {
		pool, err := NewWorkerPool(tt.requested, nil)
		if (err != nil) != tt.wantErr {
			t.Fatalf("NewWorkerPool(%d) error = %v, wantErr %v", tt.requested, err, tt.wantErr)
		}
		if err != nil {
			continue
		}
		if pool.workers != tt.want {
			t.Errorf("NewWorkerPool(%d) workers = %d, want %d", tt.requested, pool.workers, tt.want)
		}
		pool.Close()
	}
}

// TestWorkerPoolConcurrentSubmissions tests concurrent task submissions
func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool, _ := NewWorkerPool(10, nil)

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() {
				atomic.AddInt64(&counter, 1)
			})
		}()
	}

	wg.Wait()
	pool.Close()

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

// TestWorkerPoolCloseRace validates that closing the pool while submitting
// tasks doesn't panic
func TestWorkerPoolCloseRace(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		pool, _ := NewWorkerPool(4, nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pool.Submit(func() {
						time.Sleep(time.Millisecond)
					})
				}
			}()
		}

		time.Sleep(2 * time.Millisecond)
		pool.Close()
		wg.Wait()
	}
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	pool, _ := NewWorkerPool(1, logging.NewJSONLogger(&buf, logging.DebugLevel))

	var after atomic.Bool
	pool.Submit(func() { panic("boom") })
	pool.Submit(func() { after.Store(true) })
	pool.Close()

	if !after.Load() {
		t.Error("Worker stopped after a panic")
	}
	if !strings.Contains(buf.String(), "worker panic recovered") {
		t.Errorf("Expected panic to be logged, got %s", buf.String())
	}
}

func TestForEach(t *testing.T) {
	results := make([]int, 20)
	err := ForEach(context.Background(), 4, len(results), nil, func(_ context.Context, i int) {
		results[i] = i * i
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	for i, v := range results {
		if v != i*i {
			t.Errorf("results[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestForEachCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen atomic.Int32
	_ = ForEach(ctx, 2, 5, nil, func(ctx context.Context, _ int) {
		if ctx.Err() != nil {
			seen.Add(1)
		}
	})
	if seen.Load() != 5 {
		t.Errorf("Expected every index to see the canceled context, got %d", seen.Load())
	}
}

func TestForEachEmpty(t *testing.T) {
	called := false
	if err := ForEach(context.Background(), 4, 0, nil, func(context.Context, int) { called = true }); err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if called {
		t.Error("Expected no calls for n=0")
	}
}
