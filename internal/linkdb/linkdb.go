// Package linkdb implements the id_links.bin adjacency-list database: a
// concurrent, disk-backed cache of outgoing-link lists keyed by article
// id, plus a background prefetcher that warms the cache sequentially.
//
// The locking is deliberately asymmetric: the cache map is guarded by a
// shared/exclusive lock so concurrent reads of already-cached ids never
// block each other, but the underlying file has a single current
// position shared by every reader, so a second mutex
// serializes the seek-then-read sequence against it. The two locks are
// never held nested — a read never holds the cache lock while touching
// the file, and never holds the file lock while touching the cache map —
// so a slow disk read cannot stall readers of already-cached ids.
package linkdb

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pathgraph/wikipath/internal/wikipath"
	"github.com/pathgraph/wikipath/internal/wire"
)

// DB is a read-only handle on an id_links.bin file, backed by a single
// shared file handle. It is safe for concurrent use by multiple BFS
// workers and by the Prefetcher.
type DB struct {
	name   string
	offset []uint32 // offset[x], x in [0, maxID]; 0 means "no adjacency record"

	fileMu sync.Mutex // serializes seek+read against the shared file position
	f      io.ReadSeeker

	cacheMu sync.RWMutex // guards cache; readers may run concurrently
	cache   map[wikipath.ArticleID][]wikipath.ArticleID
}

// Open reads the maxId header and offset table from f (an *os.File opened
// on id_links.bin is the expected caller) and returns a DB ready to serve
// Retrieve calls. f is retained and read from for the lifetime of the DB.
func Open(f io.ReadSeeker, name string) (*DB, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, wikipath.NewFormatError(name, "seeking to header: %v", err)
	}
	maxID, err := wire.ReadUint32(f)
	if err != nil {
		return nil, wikipath.NewFormatError(name, "reading maxId header: %v", err)
	}
	offsets := make([]uint32, maxID+1)
	for i := range offsets {
		v, err := wire.ReadUint32(f)
		if err != nil {
			return nil, wikipath.NewFormatError(name, "reading offset table entry %d: %v", i, err)
		}
		offsets[i] = v
	}
	return &DB{
		name:   name,
		offset: offsets,
		f:      f,
		cache:  make(map[wikipath.ArticleID][]wikipath.ArticleID),
	}, nil
}

// MaxID returns the number of articles declared by the header.
func (db *DB) MaxID() wikipath.ArticleID {
	return wikipath.ArticleID(len(db.offset) - 1)
}

// Retrieve returns the adjacency list for x. The returned slice is
// read-only and remains valid for the lifetime of the DB: the cache
// never evicts and never replaces an installed entry. If x is out of
// range, Retrieve returns an empty list and no error. A disk read
// failure is fatal to the query and is returned as a
// *wikipath.FormatError.
func (db *DB) Retrieve(x wikipath.ArticleID) ([]wikipath.ArticleID, error) {
	if int(x) >= len(db.offset) {
		return nil, nil
	}

	db.cacheMu.RLock()
	list, ok := db.cache[x]
	db.cacheMu.RUnlock()
	if ok {
		return list, nil
	}

	list, err := db.readFromDisk(x)
	if err != nil {
		return nil, err
	}
	return db.install(x, list), nil
}

// TryExpand ensures x is cached, discarding the result. It is the hint
// the Prefetcher uses to warm the cache ahead of query workers; it is
// idempotent and safe to call redundantly.
func (db *DB) TryExpand(x wikipath.ArticleID) error {
	_, err := db.Retrieve(x)
	return err
}

// readFromDisk performs the seek+read sequence for id x's adjacency
// record under the file mutex. It never touches the cache map, so it
// never holds both locks at once.
func (db *DB) readFromDisk(x wikipath.ArticleID) ([]wikipath.ArticleID, error) {
	off := db.offset[x]
	if off == 0 {
		return nil, nil
	}

	db.fileMu.Lock()
	defer db.fileMu.Unlock()

	if _, err := db.f.Seek(int64(off), io.SeekStart); err != nil {
		return nil, wikipath.NewFormatError(db.name, "seeking to adjacency record for id %d: %v", x, err)
	}
	n, err := wire.ReadUint32(db.f)
	if err != nil {
		return nil, wikipath.NewFormatError(db.name, "reading link count for id %d: %v", x, err)
	}
	list := make([]wikipath.ArticleID, n)
	for i := range list {
		v, err := wire.ReadUint32(db.f)
		if err != nil {
			return nil, wikipath.NewFormatError(db.name, "reading link %d/%d for id %d: %v", i, n, x, err)
		}
		list[i] = wikipath.ArticleID(v)
	}
	return list, nil
}

// install inserts list for x unless another goroutine already won the
// race to install one first, keeping exactly one canonical list per id.
// The loser's freshly-read list is simply discarded; it was never
// published anywhere, so there is nothing to undo.
func (db *DB) install(x wikipath.ArticleID, list []wikipath.ArticleID) []wikipath.ArticleID {
	db.cacheMu.Lock()
	defer db.cacheMu.Unlock()
	if existing, ok := db.cache[x]; ok {
		return existing
	}
	db.cache[x] = list
	return list
}

// Prefetcher warms a DB's cache by walking ids in ascending order and
// calling TryExpand on each. Its only purpose is to improve cache hit
// rate for the BFS workers that follow; pathfinding correctness never
// depends on it having run, or on how far it has gotten.
type Prefetcher struct {
	db        *DB
	interrupt atomic.Bool
	done      chan struct{}
}

// NewPrefetcher creates a Prefetcher bound to db. Call Run in its own
// goroutine and Stop to request early termination.
func NewPrefetcher(db *DB) *Prefetcher {
	return &Prefetcher{db: db, done: make(chan struct{})}
}

// Run walks ids 1..MaxID ascending, calling TryExpand on each, checking
// the interrupt flag before each id. Stop itself never blocks; Run exits
// at the next check, once any disk read already under way for the
// current id has finished. Run closes its done
// channel on return; a query that wants to be sure the prefetcher has
// exited before the process exits can select on it.
func (p *Prefetcher) Run() {
	defer close(p.done)
	for id := wikipath.ArticleID(1); id <= p.db.MaxID(); id++ {
		if p.interrupt.Load() {
			return
		}
		// Errors are not fatal here: the prefetcher is a hint, and a
		// malformed record it happens to touch first will be reported
		// properly when a real query retrieves the same id.
		_ = p.db.TryExpand(id)
	}
}

// Stop requests that Run exit at its next checkpoint and does not block;
// callers that need to know Run has actually exited should wait on Done.
func (p *Prefetcher) Stop() {
	p.interrupt.Store(true)
}

// Done returns a channel that is closed once Run has returned.
func (p *Prefetcher) Done() <-chan struct{} {
	return p.done
}

// WaitStopped requests Stop and blocks until Run has exited or timeout
// elapses, whichever comes first.
func (p *Prefetcher) WaitStopped(timeout time.Duration) {
	p.Stop()
	select {
	case <-p.done:
	case <-time.After(timeout):
	}
}

// Record is one article's adjacency list to be serialized into id_links.bin.
type Record struct {
	ID      wikipath.ArticleID
	Targets []wikipath.ArticleID
}

// Write serializes records to w in the id_links.bin format. maxID must be
// at least as large as the largest id in records.
//
// Unlike id_name.bin's offsets, which are relative to the end of its
// header, id_links.bin offsets here are absolute file positions:
// Retrieve seeks directly to them, and an absolute offset of 0 can
// never collide with a real record, since every record lives past the
// header and offset table. A relative scheme would need a separate
// sentinel, since the first record could otherwise legitimately sit at
// relative offset 0.
func Write(w io.Writer, maxID wikipath.ArticleID, records []Record) error {
	byID := make(map[wikipath.ArticleID][]wikipath.ArticleID, len(records))
	for _, r := range records {
		byID[r.ID] = r.Targets
	}

	headerSize := uint32(4 + int64(maxID+1)*4)
	offsets := make([]uint32, maxID+1)
	var body []byte
	for id := wikipath.ArticleID(1); id <= maxID; id++ {
		targets := byID[id]
		if len(targets) == 0 {
			continue // offset stays 0: "unused"
		}
		offsets[id] = headerSize + uint32(len(body))
		body = appendUint32(body, uint32(len(targets)))
		for _, t := range targets {
			body = appendUint32(body, uint32(t))
		}
	}

	if err := wire.WriteUint32(w, uint32(maxID)); err != nil {
		return err
	}
	for _, off := range offsets {
		if err := wire.WriteUint32(w, off); err != nil {
			return err
		}
	}
	_, err := w.Write(body)
	return err
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
