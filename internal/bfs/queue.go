package bfs

import (
	"sync"
	"time"

	"github.com/pathgraph/wikipath/internal/wikipath"
)

// task is one (node, parent, distance) tuple moving through a round's
// input or output queue.
type task struct {
	Node     wikipath.ArticleID
	Parent   wikipath.ArticleID
	Distance int
}

// queue is a multi-producer/multi-consumer work queue: blocking Get with
// a deadline, non-blocking Put, backed by its own mutex and condition
// variable rather than a fixed-size channel, since neither queue has a
// natural capacity bound in this design.
type queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []task
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends item and wakes one blocked Get. It never blocks.
func (q *queue) Put(item task) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.cond.Signal()
}

// Get blocks until an item is available or timeout elapses, in which
// case it returns (task{}, false). A timeout is not an error: it
// signals that this worker's round is exhausted.
func (q *queue) Get(timeout time.Duration) (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for len(q.items) == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return task{}, false
		}
		timer := time.AfterFunc(remaining, func() {
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		q.cond.Wait()
		timer.Stop()
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// drainUpTo removes and returns up to n items currently queued, without
// blocking. It is used by the orchestrator to drain a round's output
// queue in bounded batches rather than one item at a time.
func (q *queue) drainUpTo(n int) []task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.items) {
		n = len(q.items)
	}
	batch := make([]task, n)
	copy(batch, q.items[:n])
	q.items = q.items[n:]
	return batch
}
