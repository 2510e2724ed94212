// Package redirect implements the redirects.bin table: a sorted flat
// array of (source id, target id) pairs resolved by binary search.
package redirect

import (
	"io"
	"sort"

	"github.com/pathgraph/wikipath/internal/wikipath"
	"github.com/pathgraph/wikipath/internal/wire"
)

// Table is a read-only handle on a redirects.bin file. Records are
// loaded once into memory at Open time: a real-corpus redirect table is a
// small fraction of the article count, so this trades a little memory for
// avoiding a disk seek on every resolve.
type Table struct {
	src []uint32
	dst []uint32
}

// Open reads every (src, dst) record from r. r must expose the full
// redirects.bin content; a *bytes.Reader over a preloaded []byte or an
// *os.File both work since Open reads it exactly once, sequentially.
func Open(r io.Reader, name string) (*Table, error) {
	t := &Table{}
	for {
		src, err := wire.ReadUint32(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wikipath.NewFormatError(name, "reading redirect source: %v", err)
		}
		dst, err := wire.ReadUint32(r)
		if err != nil {
			return nil, wikipath.NewFormatError(name, "reading redirect target for src %d: %v", src, err)
		}
		if len(t.src) > 0 && src <= t.src[len(t.src)-1] {
			return nil, wikipath.NewFormatError(name, "redirect table not strictly ascending at src %d", src)
		}
		t.src = append(t.src, src)
		t.dst = append(t.dst, dst)
	}
	return t, nil
}

// Resolve returns x's redirect target if x is a redirect source, else x
// unchanged.
func (t *Table) Resolve(x wikipath.ArticleID) wikipath.ArticleID {
	i := sort.Search(len(t.src), func(i int) bool { return t.src[i] >= uint32(x) })
	if i < len(t.src) && t.src[i] == uint32(x) {
		return wikipath.ArticleID(t.dst[i])
	}
	return x
}

// ResolveChecked behaves like Resolve but additionally guards against a
// corrupt index describing a redirect cycle: redirects are meant to be
// acyclic, with one hop always sufficient, but a from-disk reader cannot
// trust that assumption the way the indexer's in-memory build step can.
// It follows the chain at most two hops past Resolve and reports a
// FormatError if the chain has still not ended there (as in a cycle),
// rather than looping.
func (t *Table) ResolveChecked(x wikipath.ArticleID, name string) (wikipath.ArticleID, error) {
	once := t.Resolve(x)
	twice := t.Resolve(once)
	if twice != once && t.Resolve(twice) != twice {
		return 0, wikipath.NewFormatError(name, "redirect cycle detected starting at id %d", x)
	}
	return once, nil
}

// Record is one (source, target) pair to be serialized into redirects.bin.
type Record struct {
	Src wikipath.ArticleID
	Dst wikipath.ArticleID
}

// Write serializes records to w sorted strictly ascending by Src. It is
// an error for two records to share a Src, since a redirect source maps
// to exactly one target.
func Write(w io.Writer, records []Record) error {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Src < sorted[j].Src })
	for i, r := range sorted {
		if i > 0 && sorted[i-1].Src == r.Src {
			return wikipath.NewFormatError("redirects.bin", "duplicate redirect source id %d", r.Src)
		}
		if err := wire.WriteUint32(w, uint32(r.Src)); err != nil {
			return err
		}
		if err := wire.WriteUint32(w, uint32(r.Dst)); err != nil {
			return err
		}
	}
	return nil
}
