package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestQueueSingleHolder(t *testing.T) {
	q := newExecQueue(nil)
	if err := q.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if q.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", q.Depth())
	}
	q.Release()
	if q.Depth() != 0 {
		t.Fatalf("expected depth 0, got %d", q.Depth())
	}
}

// Waiters are admitted strictly in Acquire arrival order.
func TestQueueFIFOOrder(t *testing.T) {
	q := newExecQueue(nil)
	if err := q.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	const waiters = 5
	var mu sync.Mutex
	var order []int
	started := make(chan struct{}, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Serialize arrival so the expected order is deterministic.
			<-started
			if err := q.Acquire(context.Background()); err != nil {
				t.Errorf("acquire %d: %v", i, err)
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			q.Release()
		}()
		started <- struct{}{}
		// Give the goroutine time to enqueue before the next arrives.
		for q.Depth() != i+2 {
			time.Sleep(time.Millisecond)
		}
	}

	q.Release()
	wg.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("FIFO violated: order=%v", order)
		}
	}
}

func TestQueueAcquireCancelled(t *testing.T) {
	q := newExecQueue(nil)
	if err := q.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Acquire(ctx); err == nil {
		t.Fatalf("expected context error while queue held")
	}
	if q.Depth() != 1 {
		t.Fatalf("abandoned waiter still counted: depth=%d", q.Depth())
	}

	// The holder releases and the queue is usable again.
	q.Release()
	if err := q.Acquire(context.Background()); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	q.Release()
}

func TestQueueDepthCallback(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	q := newExecQueue(func(depth int) {
		mu.Lock()
		seen = append(seen, depth)
		mu.Unlock()
	})
	_ = q.Acquire(context.Background())
	q.Release()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 0 {
		t.Fatalf("unexpected depth reports: %v", seen)
	}
}
