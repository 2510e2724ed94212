// Package bfs implements a parallel, level-synchronous breadth-first
// search: a fixed worker pool expands one BFS round at a time against a
// linkdb.DB, an orchestrator goroutine owns the predecessor map
// exclusively and assembles each round's output before starting the
// next, and the round barrier (no round k+1 work begins until round k
// is fully drained) is what guarantees a shortest path.
package bfs

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pathgraph/wikipath/internal/linkdb"
	"github.com/pathgraph/wikipath/internal/wikipath"
)

const (
	// DefaultWorkers is the fixed worker-pool size used when an Engine
	// does not override it.
	DefaultWorkers = 8
	// DefaultTimeout is the queue inactivity deadline after which an idle
	// worker treats its round as exhausted.
	DefaultTimeout = 100 * time.Millisecond
	// DefaultBatch is K, the output-queue drain batch size.
	DefaultBatch = 8192
)

// PredEntry records, for one discovered id, its best known predecessor on
// a shortest path from the query's source and that shortest distance.
type PredEntry struct {
	Parent   wikipath.ArticleID
	Distance int
}

// Result is the outcome of a single pathfinding query.
type Result struct {
	// Path lists ids from source to destination inclusive. It is nil if
	// Found is false.
	Path []wikipath.ArticleID
	// Found reports whether destination was reachable from source.
	Found bool
	// Rounds is the number of BFS levels expanded, for diagnostics.
	Rounds int
}

// Engine runs one parallel BFS query at a time against a link database.
// An Engine holds no per-query state between calls to Run, so the same
// Engine can be reused for multiple queries against the same database.
type Engine struct {
	DB      *linkdb.DB
	Workers int
	Timeout time.Duration
	Batch   int
}

// NewEngine returns an Engine with the default worker count, timeout,
// and drain batch size.
func NewEngine(db *linkdb.DB) *Engine {
	return &Engine{DB: db, Workers: DefaultWorkers, Timeout: DefaultTimeout, Batch: DefaultBatch}
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return DefaultWorkers
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

func (e *Engine) batch() int {
	if e.Batch > 0 {
		return e.Batch
	}
	return DefaultBatch
}

// Run searches for a shortest path from source to destination. An
// unreachable destination is not an error: it comes back as
// Result{Found: false}. A non-nil error indicates a fatal database read
// failure.
func (e *Engine) Run(source, dest wikipath.ArticleID) (Result, error) {
	if source == dest {
		return Result{Path: []wikipath.ArticleID{source}, Found: true}, nil
	}

	pred := map[wikipath.ArticleID]PredEntry{}

	// Seed round 1 directly from source's neighbors; source itself is
	// the implicit root and is not seeded into pred. A later round may
	// still record it when a link leads back to it; reconstruct stops at
	// source before consulting pred, so such an entry is never followed.
	neighbors, err := e.DB.Retrieve(source)
	if err != nil {
		return Result{}, err
	}
	frontier := make([]task, 0, len(neighbors))
	for _, n := range neighbors {
		if _, ok := pred[n]; ok {
			continue
		}
		pred[n] = PredEntry{Parent: source, Distance: 1}
		frontier = append(frontier, task{Node: n, Parent: source, Distance: 1})
	}

	rounds := 0
	for len(frontier) > 0 {
		if _, ok := pred[dest]; ok {
			break
		}
		rounds++
		next, err := e.runRound(pred, frontier, dest)
		if err != nil {
			return Result{}, err
		}
		frontier = next
	}

	if _, ok := pred[dest]; !ok {
		return Result{Found: false, Rounds: rounds}, nil
	}
	return Result{Path: reconstruct(pred, source, dest), Found: true, Rounds: rounds}, nil
}

// runRound expands one BFS level: it spawns the worker pool against
// frontier, drains their output into pred as it arrives, and returns the
// ids newly discovered this round (the next level's frontier). It
// returns once every worker has exited and the output queue is fully
// drained, which is the round barrier that guarantees shortest paths:
// no node is expanded at distance d+1 before every distance-d node has
// had a chance to claim it first.
func (e *Engine) runRound(pred map[wikipath.ArticleID]PredEntry, frontier []task, dest wikipath.ArticleID) ([]task, error) {
	input := newQueue()
	output := newQueue()
	for _, t := range frontier {
		input.Put(t)
	}

	var interrupted atomic.Bool
	var g errgroup.Group
	for i := 0; i < e.workers(); i++ {
		g.Go(func() error {
			return e.worker(input, output, dest, &interrupted)
		})
	}

	workersDone := make(chan struct{})
	var workersErr error
	go func() {
		workersErr = g.Wait()
		close(workersDone)
	}()

	var nextRound []wikipath.ArticleID
	drain := func() int {
		n := 0
		for _, t := range output.drainUpTo(e.batch()) {
			n++
			cur, ok := pred[t.Node]
			if !ok || t.Distance < cur.Distance {
				pred[t.Node] = PredEntry{Parent: t.Parent, Distance: t.Distance}
				nextRound = append(nextRound, t.Node)
			}
		}
		return n
	}

	for {
		got := drain()
		if _, ok := pred[dest]; ok {
			interrupted.Store(true)
		}
		select {
		case <-workersDone:
			for drain() > 0 {
				// flush anything workers queued right before exiting
			}
			if workersErr != nil {
				return nil, workersErr
			}
			return toTasks(nextRound, pred), nil
		default:
			if got == 0 {
				time.Sleep(time.Millisecond)
			}
		}
	}
}

// worker repeatedly pulls a node off input, expands its neighbors onto
// output, and exits on queue timeout (round exhausted), on seeing the
// interrupt flag, or the instant it produces destination (short-circuit).
func (e *Engine) worker(input, output *queue, dest wikipath.ArticleID, interrupted *atomic.Bool) error {
	for {
		if interrupted.Load() {
			return nil
		}
		t, ok := input.Get(e.timeout())
		if !ok {
			return nil
		}
		neighbors, err := e.DB.Retrieve(t.Node)
		if err != nil {
			return err
		}
		for _, u := range neighbors {
			output.Put(task{Node: u, Parent: t.Node, Distance: t.Distance + 1})
			if u == dest {
				return nil
			}
		}
		if interrupted.Load() {
			return nil
		}
	}
}

func toTasks(ids []wikipath.ArticleID, pred map[wikipath.ArticleID]PredEntry) []task {
	tasks := make([]task, len(ids))
	for i, id := range ids {
		e := pred[id]
		tasks[i] = task{Node: id, Parent: e.Parent, Distance: e.Distance}
	}
	return tasks
}

// reconstruct walks pred backwards from dest to source and reverses the
// result into a source-to-dest path.
func reconstruct(pred map[wikipath.ArticleID]PredEntry, source, dest wikipath.ArticleID) []wikipath.ArticleID {
	if source == dest {
		return []wikipath.ArticleID{source}
	}
	var rev []wikipath.ArticleID
	cur := dest
	for cur != source {
		rev = append(rev, cur)
		e, ok := pred[cur]
		if !ok {
			return nil
		}
		cur = e.Parent
	}
	rev = append(rev, source)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
