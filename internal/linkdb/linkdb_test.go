package linkdb

import (
	"bytes"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pathgraph/wikipath/internal/wikipath"
)

func buildDB(t *testing.T, maxID wikipath.ArticleID, records []Record) *DB {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, maxID, records); err != nil {
		t.Fatal(err)
	}
	db, err := Open(bytes.NewReader(buf.Bytes()), "test")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

// Retrieve returns exactly the on-disk list for a non-empty id,
// regardless of warm/cold cache state.
func TestRetrieveMatchesDisk(t *testing.T) {
	db := buildDB(t, 3, []Record{
		{ID: 1, Targets: []wikipath.ArticleID{2, 3}},
		{ID: 2, Targets: []wikipath.ArticleID{3}},
	})
	got, err := db.Retrieve(1)
	if err != nil {
		t.Fatal(err)
	}
	want := []wikipath.ArticleID{2, 3}
	if !equalIDs(got, want) {
		t.Errorf("cold Retrieve(1) = %v, want %v", got, want)
	}
	// Warm read must agree.
	got2, err := db.Retrieve(1)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(got2, want) {
		t.Errorf("warm Retrieve(1) = %v, want %v", got2, want)
	}
}

func TestRetrieveOutOfRangeIsEmpty(t *testing.T) {
	db := buildDB(t, 1, []Record{{ID: 1, Targets: []wikipath.ArticleID{1}}})
	got, err := db.Retrieve(99)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty for out-of-range id", got)
	}
}

func TestRetrieveUnusedIsEmpty(t *testing.T) {
	db := buildDB(t, 2, []Record{{ID: 1, Targets: []wikipath.ArticleID{1}}})
	got, err := db.Retrieve(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty for id with no record", got)
	}
}

// Concurrent retrieves for the same cold id must not race and must
// agree on the result.
func TestRetrieveConcurrentSameID(t *testing.T) {
	db := buildDB(t, 1, []Record{{ID: 1, Targets: []wikipath.ArticleID{1}}})
	var g errgroup.Group
	results := make([][]wikipath.ArticleID, 50)
	for i := range results {
		i := i
		g.Go(func() error {
			got, err := db.Retrieve(1)
			results[i] = got
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i, got := range results {
		if !equalIDs(got, []wikipath.ArticleID{1}) {
			t.Errorf("result[%d] = %v, want [1]", i, got)
		}
	}
}

func TestPrefetcherWarmsCacheAndStops(t *testing.T) {
	db := buildDB(t, 3, []Record{
		{ID: 1, Targets: []wikipath.ArticleID{2}},
		{ID: 2, Targets: []wikipath.ArticleID{3}},
		{ID: 3, Targets: nil},
	})
	p := NewPrefetcher(db)
	go p.Run()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("prefetcher did not finish warming a tiny corpus in time")
	}
	got, err := db.Retrieve(2)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(got, []wikipath.ArticleID{3}) {
		t.Errorf("got %v, want [3]", got)
	}
}

func TestPrefetcherStopIsIdempotentAndBounded(t *testing.T) {
	db := buildDB(t, 0, nil)
	p := NewPrefetcher(db)
	go p.Run()
	p.WaitStopped(time.Second)
	p.Stop() // must not panic or block when called again after Run exits
}

func equalIDs(a, b []wikipath.ArticleID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
