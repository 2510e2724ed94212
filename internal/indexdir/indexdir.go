// Package indexdir opens the four on-disk index files (name_id.bin,
// id_name.bin, redirects.bin, id_links.bin) as a single unit, and
// arbitrates access to the index directory between the indexer
// (exclusive writer) and the pathfinder (shared reader) with an
// advisory flock via golang.org/x/sys/unix.
//
// This locking is purely a safety net against reading indexes
// mid-write; it plays no part in the concurrency contract that governs
// access to an already-opened, immutable set of index files.
package indexdir

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/pathgraph/wikipath/internal/idtable"
	"github.com/pathgraph/wikipath/internal/linkdb"
	"github.com/pathgraph/wikipath/internal/nametree"
	"github.com/pathgraph/wikipath/internal/redirect"
)

const (
	NameIDFile    = "name_id.bin"
	IDNameFile    = "id_name.bin"
	RedirectsFile = "redirects.bin"
	IDLinksFile   = "id_links.bin"
)

// Set holds every opened index, ready for the pathfinder's name
// resolution, redirect resolution, and BFS.
type Set struct {
	Names     *nametree.Tree
	Titles    *idtable.Table
	Redirects *redirect.Table
	Links     *linkdb.DB

	dirFD int
	files []*os.File
}

// Open opens all four index files under dir for reading and takes a
// shared, non-blocking advisory lock on the directory, so a concurrent
// indexer run (which takes an exclusive lock while writing) cannot race
// a query against half-written files. It returns an error immediately
// if the lock cannot be acquired, rather than blocking a query
// indefinitely behind a long-running reindex.
func Open(dir string) (*Set, error) {
	dirFD, err := unix.Open(dir, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("indexdir: opening %s: %w", dir, err)
	}
	if err := unix.Flock(dirFD, unix.LOCK_SH|unix.LOCK_NB); err != nil {
		unix.Close(dirFD)
		return nil, fmt.Errorf("indexdir: %s is locked for writing by the indexer: %w", dir, err)
	}

	s := &Set{dirFD: dirFD}

	nameIDFile, err := s.openFile(dir, NameIDFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Names = nametree.Open(nameIDFile, NameIDFile)

	idNameFile, err := s.openFile(dir, IDNameFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Titles, err = idtable.Open(idNameFile, IDNameFile)
	if err != nil {
		s.Close()
		return nil, err
	}

	redirectsFile, err := s.openFile(dir, RedirectsFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Redirects, err = redirect.Open(redirectsFile, RedirectsFile)
	if err != nil {
		s.Close()
		return nil, err
	}

	idLinksFile, err := s.openFile(dir, IDLinksFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Links, err = linkdb.Open(idLinksFile, IDLinksFile)
	if err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Set) openFile(dir, name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("indexdir: opening %s: %w", name, err)
	}
	s.files = append(s.files, f)
	return f, nil
}

// Close releases the directory lock and closes every open index file.
func (s *Set) Close() error {
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.dirFD != 0 {
		unix.Close(s.dirFD)
	}
	return firstErr
}

// LockForWrite takes an exclusive, non-blocking advisory lock on dir for
// the duration of an indexer run, so a concurrent pathfinder query
// cannot open the files mid-rewrite. The caller must call the returned
// unlock function when done writing.
func LockForWrite(dir string) (unlock func() error, err error) {
	fd, err := unix.Open(dir, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("indexdir: opening %s: %w", dir, err)
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("indexdir: %s is locked by a concurrent indexer or query: %w", dir, err)
	}
	return func() error { return unix.Close(fd) }, nil
}
