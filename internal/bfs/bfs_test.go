package bfs

import (
	"bytes"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/pathgraph/wikipath/internal/linkdb"
	"github.com/pathgraph/wikipath/internal/testutil"
	"github.com/pathgraph/wikipath/internal/wikipath"
)

func buildEngine(t *testing.T, maxID wikipath.ArticleID, adjacency map[wikipath.ArticleID][]wikipath.ArticleID) *Engine {
	t.Helper()
	if testutil.VerboseTest() {
		t.Logf("adjacency: %+v", adjacency)
	}
	var records []linkdb.Record
	for id, targets := range adjacency {
		records = append(records, linkdb.Record{ID: id, Targets: targets})
	}
	var buf bytes.Buffer
	if err := linkdb.Write(&buf, maxID, records); err != nil {
		t.Fatal(err)
	}
	db, err := linkdb.Open(bytes.NewReader(buf.Bytes()), "test")
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(db)
	// These corpora are tiny, so a smaller pool than the default is
	// enough; the queue timeout stays at DefaultTimeout.
	e.Workers = 4
	return e
}

// A simple chain finds the only possible path.
func TestEndToEndChain(t *testing.T) {
	e := buildEngine(t, 3, map[wikipath.ArticleID][]wikipath.ArticleID{
		1: {2},
		2: {3},
		3: {},
	})
	res, err := e.Run(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []wikipath.ArticleID{1, 2, 3}
	if diff := pretty.Compare(res.Path, want); diff != "" {
		t.Errorf("path mismatch (-got +want):\n%s", diff)
	}
}

// A cycle in the graph must not be taken; the shortest path is still found.
func TestEndToEndCycle(t *testing.T) {
	e := buildEngine(t, 3, map[wikipath.ArticleID][]wikipath.ArticleID{
		1: {2},
		2: {1, 3},
		3: {},
	})
	res, err := e.Run(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Fatal("expected path to be found")
	}
	want := []wikipath.ArticleID{1, 2, 3}
	if diff := pretty.Compare(res.Path, want); diff != "" {
		t.Errorf("path mismatch (-got +want):\n%s", diff)
	}
}

// A disconnected graph reports "no path" without error.
func TestEndToEndDisconnected(t *testing.T) {
	e := buildEngine(t, 2, map[wikipath.ArticleID][]wikipath.ArticleID{
		1: {},
		2: {},
	})
	res, err := e.Run(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Errorf("expected unreachable, got path %v", res.Path)
	}
}

// When several shortest paths exist, only the length is guaranteed.
func TestEndToEndMultipleShortestPaths(t *testing.T) {
	e := buildEngine(t, 4, map[wikipath.ArticleID][]wikipath.ArticleID{
		1: {2, 3},
		2: {4},
		3: {4},
		4: {},
	})
	res, err := e.Run(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Fatal("expected path to be found")
	}
	if len(res.Path) != 3 {
		t.Errorf("path length = %d, want 3: %v", len(res.Path), res.Path)
	}
	if res.Path[0] != 1 || res.Path[2] != 4 {
		t.Errorf("path endpoints wrong: %v", res.Path)
	}
}

func TestSameSourceAndDestination(t *testing.T) {
	e := buildEngine(t, 1, map[wikipath.ArticleID][]wikipath.ArticleID{1: {}})
	res, err := e.Run(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []wikipath.ArticleID{1}
	if diff := pretty.Compare(res.Path, want); diff != "" {
		t.Errorf("path mismatch (-got +want):\n%s", diff)
	}
}

// Every returned path consists of real edges, and its length is exactly
// the shortest distance (checked here against a hand-computed BFS over
// a slightly larger synthetic graph).
func TestPathEdgesAreRealAndShortest(t *testing.T) {
	adjacency := map[wikipath.ArticleID][]wikipath.ArticleID{
		1: {2, 3},
		2: {4},
		3: {4, 5},
		4: {6},
		5: {6},
		6: {},
	}
	e := buildEngine(t, 6, adjacency)
	res, err := e.Run(1, 6)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Fatal("expected reachable")
	}
	const wantLen = 4 // 1 -> {2,3} -> {4,5} -> 6
	if len(res.Path) != wantLen {
		t.Fatalf("path length = %d, want %d: %v", len(res.Path), wantLen, res.Path)
	}
	for i := 0; i+1 < len(res.Path); i++ {
		from, to := res.Path[i], res.Path[i+1]
		if !contains(adjacency[from], to) {
			t.Errorf("edge %d -> %d is not in the adjacency list", from, to)
		}
	}
}

func contains(list []wikipath.ArticleID, id wikipath.ArticleID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}

func TestReconstructUnknownDestReturnsNil(t *testing.T) {
	pred := map[wikipath.ArticleID]PredEntry{}
	if got := reconstruct(pred, 1, 2); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
