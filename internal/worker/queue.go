package worker

import (
	"context"
	"sync"
)

// execQueue serializes execute batches for one worker instance: at most one
// holder at a time, strict FIFO by Acquire arrival. Each server owns its own
// queue; there is no process-global queue state.
type execQueue struct {
	mu      sync.Mutex
	running bool
	waiters []chan struct{}
	onDepth func(depth int)
}

func newExecQueue(onDepth func(int)) *execQueue {
	return &execQueue{onDepth: onDepth}
}

// Acquire blocks until the caller holds the queue or ctx ends. Waiters are
// admitted in arrival order.
func (q *execQueue) Acquire(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.running = true
		q.notifyDepth()
		q.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	q.waiters = append(q.waiters, ready)
	q.notifyDepth()
	q.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		q.abandon(ready)
		return ctx.Err()
	}
}

// Release hands the queue to the oldest waiter, if any.
func (q *execQueue) Release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.waiters) > 0 {
		ready := q.waiters[0]
		q.waiters = q.waiters[1:]
		close(ready)
	} else {
		q.running = false
	}
	q.notifyDepth()
}

// Depth counts the holder plus queued waiters.
func (q *execQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depthLocked()
}

// abandon removes a waiter whose context ended. If the hand-off already
// happened the waiter owns the queue and must release it.
func (q *execQueue) abandon(ready chan struct{}) {
	q.mu.Lock()
	for i, w := range q.waiters {
		if w == ready {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			q.notifyDepth()
			q.mu.Unlock()
			return
		}
	}
	q.mu.Unlock()

	select {
	case <-ready:
		q.Release()
	default:
	}
}

func (q *execQueue) depthLocked() int {
	depth := len(q.waiters)
	if q.running {
		depth++
	}
	return depth
}

func (q *execQueue) notifyDepth() {
	if q.onDepth != nil {
		q.onDepth(q.depthLocked())
	}
}
