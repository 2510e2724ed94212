// Package nametree implements the name_id.bin binary search tree: a
// persisted ordered tree over lowercased article titles, read by
// following explicit file-offset child pointers rather than in-memory
// pointers (there is no way to mmap-and-cast a variable length node onto
// a Go struct, so each node is decoded field by field).
package nametree

import (
	"io"
	"math"
	"sort"
	"strings"

	"github.com/pathgraph/wikipath/internal/wikipath"
	"github.com/pathgraph/wikipath/internal/wire"
)

const (
	hasLeft  = 1 << 0
	hasRight = 1 << 1
)

// Tree is a read-only handle on a name_id.bin file. Lookups perform
// O(height) random-access reads and keep no tree state in memory, so a
// single process-lifetime Tree can serve concurrent lookups without any
// locking: io.ReaderAt implementations (such as *os.File) are safe for
// concurrent use.
type Tree struct {
	r    io.ReaderAt
	name string // file name, for diagnostics only
}

// Open wraps r (typically an *os.File opened on name_id.bin) as a Tree.
// name is used only to annotate FormatErrors.
func Open(r io.ReaderAt, name string) *Tree {
	return &Tree{r: r, name: name}
}

type node struct {
	title string
	id    wikipath.ArticleID
	left  (*int64)
	right (*int64)
}

func (t *Tree) readNode(offset int64) (node, error) {
	if offset < 0 {
		return node{}, wikipath.NewFormatError(t.name, "negative node offset %d", offset)
	}
	sr := io.NewSectionReader(t.r, offset, math.MaxInt64-offset)

	title, err := wire.ReadString(sr)
	if err != nil {
		return node{}, wikipath.NewFormatError(t.name, "reading title at offset %d: %v", offset, err)
	}
	id, err := wire.ReadUint32(sr)
	if err != nil {
		return node{}, wikipath.NewFormatError(t.name, "reading id at offset %d: %v", offset, err)
	}
	var childInfo [1]byte
	if _, err := io.ReadFull(sr, childInfo[:]); err != nil {
		return node{}, wikipath.NewFormatError(t.name, "reading child info at offset %d: %v", offset, err)
	}

	n := node{title: title, id: wikipath.ArticleID(id)}
	if childInfo[0]&hasLeft != 0 {
		left, err := wire.ReadUint32(sr)
		if err != nil {
			return node{}, wikipath.NewFormatError(t.name, "reading left offset at %d: %v", offset, err)
		}
		l := int64(left)
		n.left = &l
	}
	if childInfo[0]&hasRight != 0 {
		right, err := wire.ReadUint32(sr)
		if err != nil {
			return node{}, wikipath.NewFormatError(t.name, "reading right offset at %d: %v", offset, err)
		}
		r := int64(right)
		n.right = &r
	}
	return n, nil
}

// Lookup resolves a lowercased title to its article id, or 0 if the tree
// has no node for it. The query is compared byte-lexicographically against
// stored titles, so callers must lowercase before calling — both the
// indexer and the pathfinder lowercase every title before any lookup.
func (t *Tree) Lookup(lowerTitle string) (wikipath.ArticleID, error) {
	// An empty file is the tree Write produces for no entries: it has no
	// root node, so no title is found.
	var probe [1]byte
	if n, err := t.r.ReadAt(probe[:], 0); n == 0 && err == io.EOF {
		return 0, nil
	}
	offset := int64(0)
	for {
		n, err := t.readNode(offset)
		if err != nil {
			return 0, err
		}
		switch {
		case lowerTitle == n.title:
			return n.id, nil
		case lowerTitle < n.title:
			if n.left == nil {
				return 0, nil
			}
			offset = *n.left
		default:
			if n.right == nil {
				return 0, nil
			}
			offset = *n.right
		}
	}
}

// Entry is one (title, id) pair to be serialized into a name_id.bin tree.
type Entry struct {
	Title string // already lowercased
	ID    wikipath.ArticleID
}

// Write serializes entries as a balanced ordered binary tree to w, in the
// name_id.bin format. Entries need not be pre-sorted; Write sorts a copy.
// Building a balanced tree from a sorted slice (root = median, recurse on
// halves) keeps lookup depth at O(log n) instead of O(n) for an
// insertion-ordered tree built from an arbitrarily-ordered dump.
func Write(w io.Writer, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	// First pass: compute the file offset every node will land at, in the
	// same recursive order Write will use to emit them, so child pointers
	// can be written inline without a patch-up pass.
	offsets := make([]int64, len(sorted))
	var cursor int64
	var plan func(lo, hi int)
	plan = func(lo, hi int) {
		if lo >= hi {
			return
		}
		mid := (lo + hi) / 2
		offsets[mid] = cursor
		cursor += nodeSize(sorted[mid], lo < mid, mid+1 < hi)
		plan(lo, mid)
		plan(mid+1, hi)
	}
	plan(0, len(sorted))

	var emit func(lo, hi int) error
	emit = func(lo, hi int) error {
		if lo >= hi {
			return nil
		}
		mid := (lo + hi) / 2
		e := sorted[mid]
		if err := wire.WriteString(w, e.Title); err != nil {
			return err
		}
		if err := wire.WriteUint32(w, uint32(e.ID)); err != nil {
			return err
		}
		var info byte
		if lo < mid {
			info |= hasLeft
		}
		if mid+1 < hi {
			info |= hasRight
		}
		if _, err := w.Write([]byte{info}); err != nil {
			return err
		}
		if lo < mid {
			if err := wire.WriteUint32(w, uint32(offsets[(lo+mid)/2])); err != nil {
				return err
			}
		}
		if mid+1 < hi {
			if err := wire.WriteUint32(w, uint32(offsets[(mid+1+hi)/2])); err != nil {
				return err
			}
		}
		if err := emit(lo, mid); err != nil {
			return err
		}
		return emit(mid+1, hi)
	}
	return emit(0, len(sorted))
}

func nodeSize(e Entry, hasL, hasR bool) int64 {
	size := int64(2 + len(e.Title) + 4 + 1)
	if hasL {
		size += 4
	}
	if hasR {
		size += 4
	}
	return size
}

// Lower is the canonical lowercasing used before any name_id.bin lookup
// or insertion, shared by the indexer and the pathfinder so they always
// agree on how a title is folded.
func Lower(title string) string {
	return strings.ToLower(title)
}
