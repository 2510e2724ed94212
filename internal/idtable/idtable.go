// Package idtable implements the id_name.bin reverse lookup: a flat,
// offset-indexed table mapping an article id to its title.
package idtable

import (
	"io"
	"math"

	"github.com/pathgraph/wikipath/internal/wikipath"
	"github.com/pathgraph/wikipath/internal/wire"
)

// Table is a read-only handle on an id_name.bin file.
type Table struct {
	r      io.ReaderAt
	name   string
	maxID  wikipath.ArticleID
	offset []uint32 // offset[x], x in [0, maxID]
}

// headerSize is the byte length of the fixed header (maxId) plus the
// offset table, given maxID.
func headerSize(maxID wikipath.ArticleID) int64 {
	return 4 + int64(maxID+1)*4
}

// Open reads the maxId header and offset table from r (typically an
// *os.File opened on id_name.bin) and returns a Table ready for Name
// lookups. Unlike name lookups, which re-seek per query, the offset
// table is small relative to the corpus (4 bytes/id) and is loaded once.
func Open(r io.ReaderAt, name string) (*Table, error) {
	var hdr [4]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, wikipath.NewFormatError(name, "reading maxId header: %v", err)
	}
	maxID := wikipath.ArticleID(be32(hdr[:]))

	raw := make([]byte, int64(maxID+1)*4)
	if _, err := r.ReadAt(raw, 4); err != nil {
		return nil, wikipath.NewFormatError(name, "reading offset table (maxId=%d): %v", maxID, err)
	}
	offsets := make([]uint32, maxID+1)
	for i := range offsets {
		offsets[i] = be32(raw[i*4:])
	}
	return &Table{r: r, name: name, maxID: maxID, offset: offsets}, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// MaxID returns the number of articles declared by the header.
func (t *Table) MaxID() wikipath.ArticleID {
	return t.maxID
}

// Name resolves an article id to its title. It returns ("", nil) if id is
// out of range or its slot is reserved but unused (nameLen = 0).
func (t *Table) Name(id wikipath.ArticleID) (string, error) {
	if id == 0 || id > t.maxID {
		return "", nil
	}
	addr := int64(t.offset[id]) + headerSize(t.maxID)
	sr := io.NewSectionReader(t.r, addr, math.MaxInt64-addr)
	name, err := wire.ReadString(sr)
	if err != nil {
		return "", wikipath.NewFormatError(t.name, "reading title for id %d at offset %d: %v", id, addr, err)
	}
	return name, nil
}

// Record is one (id, title) pair to be serialized into an id_name.bin file.
// Records with an empty Title leave their slot reserved but unused.
type Record struct {
	ID    wikipath.ArticleID
	Title string
}

// Write serializes records to w in the id_name.bin format. maxID must be
// at least as large as the largest id in records.
func Write(w io.Writer, maxID wikipath.ArticleID, records []Record) error {
	byID := make(map[wikipath.ArticleID]string, len(records))
	for _, r := range records {
		byID[r.ID] = r.Title
	}

	offsets := make([]uint32, maxID+1)
	var body []byte
	for id := wikipath.ArticleID(1); id <= maxID; id++ {
		offsets[id] = uint32(len(body))
		title := byID[id]
		body = appendString(body, title)
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

func appendString(body []byte, s string) []byte {
	n := len(s)
	body = append(body, byte(n>>8), byte(n))
	return append(body, s...)
}
