// Package docstore concatenates documents into a single code-point
// string, separated by a sentinel, while maintaining a dual index (by
// document id, by code-point offset) that supports O(log n)
// position-to-document lookup and O(log n) duplicate-id rejection.
package docstore

import (
	"fmt"
	"sort"

	"github.com/mtreilly/dupfind/internal/codepoint"
	"github.com/mtreilly/dupfind/internal/dferr"
)

// Position records where one document's body lives inside a Store's
// concatenated text. Start and Length are in code points; Length
// excludes the separator that follows the document.
type Position struct {
	ID     int64
	Start  int
	Length int
}

// Store owns the separator, the growing concatenated text, and two
// orderings of the Position set: insertion order (equivalently, sorted
// by Start, since starts increase monotonically on append) and sorted
// by ID for duplicate detection.
//
// Store is move-only in spirit: copying a Store copies slice headers
// that alias the same backing arrays, so callers should pass *Store,
// never duplicate one expecting independent storage.
type Store struct {
	separator    codepoint.String
	concatenated codepoint.String
	byStart      []Position // insertion order; Start is strictly increasing
	byID         []Position // sorted by ID
}

// New creates an empty store using sep as the document separator. sep
// should be a code point (or sequence) the caller guarantees will never
// appear inside a document body; otherwise accidental matches can
// straddle a separator cell (see design notes on separator choice).
func New(sep codepoint.String) *Store {
	return &Store{separator: sep}
}

// NewWithCapacity is like New but pre-reserves space for the
// concatenated text, given an estimate of its final size in bytes and
// code points. Ingestion sources that can report total content size up
// front (e.g. a SQL SUM(LENGTH(...))) should use this to avoid
// repeated buffer growth.
func NewWithCapacity(sep codepoint.String, estimatedBytes, estimatedCodePoints int) *Store {
	return &Store{
		separator:    sep,
		concatenated: codepoint.EmptyWithCapacity(estimatedBytes, estimatedCodePoints),
	}
}

// Add inserts content under id. It returns false, with no mutation,
// when id is already present. content must be well-formed UTF-8; a
// malformed buffer surfaces the codepoint package's InvalidUTF8Error.
func (s *Store) Add(content []byte, id int64) (bool, error) {
	cp, err := codepoint.New(content)
	if err != nil {
		return false, err
	}

	insertAt := sort.Search(len(s.byID), func(i int) bool { return s.byID[i].ID >= id })
	if insertAt < len(s.byID) && s.byID[insertAt].ID == id {
		return false, nil
	}

	pos := Position{ID: id, Start: s.concatenated.Len(), Length: cp.Len()}
	s.concatenated.AppendInPlace(cp)
	s.concatenated.AppendInPlace(s.separator)

	s.byStart = append(s.byStart, pos)

	s.byID = append(s.byID, Position{})
	copy(s.byID[insertAt+1:], s.byID[insertAt:])
	s.byID[insertAt] = pos

	return true, nil
}

// FindDocument returns the document owning code-point offset pos inside
// the concatenated text. It fails with an OutOfRangeError when the
// store is empty, pos precedes the first document, pos falls inside a
// separator gap, or pos is at or beyond the end of the text.
func (s *Store) FindDocument(pos int) (Position, error) {
	if len(s.byStart) == 0 {
		return Position{}, &dferr.OutOfRangeError{Op: "FindDocument", Detail: "store is empty"}
	}
	if pos < s.byStart[0].Start {
		return Position{}, &dferr.OutOfRangeError{Op: "FindDocument", Detail: fmt.Sprintf("pos %d precedes first document", pos)}
	}

	idx := sort.Search(len(s.byStart), func(i int) bool { return s.byStart[i].Start > pos }) - 1
	rec := s.byStart[idx]

	docEnd := rec.Start + rec.Length
	if pos >= rec.Start && pos < docEnd {
		return rec, nil
	}

	endWithSeparator := docEnd + s.separator.Len()
	if idx == len(s.byStart)-1 {
		endWithSeparator = docEnd
	}
	if pos < endWithSeparator {
		return Position{}, &dferr.OutOfRangeError{Op: "FindDocument", Detail: fmt.Sprintf("pos %d falls inside a separator gap", pos)}
	}
	return Position{}, &dferr.OutOfRangeError{Op: "FindDocument", Detail: fmt.Sprintf("pos %d is beyond the end of the text", pos)}
}

// Concatenated returns the current concatenated text. The returned
// value aliases the store's internal buffers; callers must not append
// to or otherwise hold it past further mutation of the store.
func (s *Store) Concatenated() codepoint.String {
	return s.concatenated
}

// Len returns the number of documents in the store.
func (s *Store) Len() int {
	return len(s.byStart)
}

// Documents returns the store's documents in insertion (equivalently,
// start-position) order.
func (s *Store) Documents() []Position {
	out := make([]Position, len(s.byStart))
	copy(out, s.byStart)
	return out
}
