package nametree

import (
	"bytes"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/pathgraph/wikipath/internal/wikipath"
)

func buildTree(t *testing.T, entries []Entry) *Tree {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		t.Fatal(err)
	}
	return Open(bytes.NewReader(buf.Bytes()), "test")
}

func TestLookupFound(t *testing.T) {
	tree := buildTree(t, []Entry{
		{Title: "alpha", ID: 1},
		{Title: "beta", ID: 2},
		{Title: "gamma", ID: 3},
		{Title: "delta", ID: 4},
	})
	for _, want := range []Entry{
		{"alpha", 1}, {"beta", 2}, {"gamma", 3}, {"delta", 4},
	} {
		got, err := tree.Lookup(want.Title)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", want.Title, err)
		}
		if got != want.ID {
			t.Errorf("Lookup(%q) = %d, want %d", want.Title, got, want.ID)
		}
	}
}

func TestLookupMissing(t *testing.T) {
	tree := buildTree(t, []Entry{{Title: "alpha", ID: 1}})
	got, err := tree.Lookup("omega")
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("got %d, want 0 for missing title", got)
	}
}

func TestLookupEmptyTree(t *testing.T) {
	tree := buildTree(t, nil)
	got, err := tree.Lookup("anything")
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestLowerIsCaseInsensitive(t *testing.T) {
	if Lower("AlPhA") != "alpha" {
		t.Errorf("Lower mismatch: %q", Lower("AlPhA"))
	}
}

// Looking up a title recovers the exact id it was written with, for
// every entry in a larger tree built from entries given in reverse order.
func TestLookupManyRoundTrip(t *testing.T) {
	var entries []Entry
	titles := []string{"zulu", "yankee", "xray", "whiskey", "victor", "uniform", "tango", "sierra"}
	for i, title := range titles {
		entries = append(entries, Entry{Title: title, ID: wikipath.ArticleID(i + 1)})
	}
	tree := buildTree(t, entries)
	got := map[string]wikipath.ArticleID{}
	for _, e := range entries {
		id, err := tree.Lookup(e.Title)
		if err != nil {
			t.Fatal(err)
		}
		got[e.Title] = id
	}
	want := map[string]wikipath.ArticleID{}
	for _, e := range entries {
		want[e.Title] = e.ID
	}
	if diff := pretty.Compare(got, want); diff != "" {
		t.Errorf("lookup mismatch (-got +want):\n%s", diff)
	}
}
