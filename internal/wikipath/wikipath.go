// Package wikipath holds the types and error kinds shared by every index
// reader and by the BFS engine: the article id space, and the format-error
// kind that command mains turn into a fatal diagnostic per the propagation
// policy (malformed index records are never recovered from, only reported).
package wikipath

import "fmt"

// ArticleID is the dense 32-bit id space assigned by the indexer. Id 0
// means "not found / invalid" and is never a valid article.
type ArticleID uint32

// Invalid reports whether id is the reserved "not found" sentinel.
func (id ArticleID) Invalid() bool {
	return id == 0
}

// FormatError reports a malformed on-disk index record: an out-of-bounds
// child offset, a short read where a fixed record was expected, or any
// other violation of a file's layout invariant. It is always fatal to the
// query that triggered it — there is no meaningful partial result to
// recover for a single corrupt record in a read-only index.
type FormatError struct {
	File string
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: malformed index: %s", e.File, e.Msg)
}

// NewFormatError builds a FormatError for file, formatting msg like fmt.Sprintf.
func NewFormatError(file, format string, args ...any) *FormatError {
	return &FormatError{File: file, Msg: fmt.Sprintf(format, args...)}
}
