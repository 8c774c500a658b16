// Package codepoint provides a UTF-8 string façade indexed by Unicode
// code point rather than by byte: O(1) code-point access, iteration,
// concatenation, and byte-wise (hence scalar-wise) ordering.
package codepoint

import (
	"bytes"
	"fmt"

	"github.com/mtreilly/dupfind/internal/dferr"
)

// String is an immutable byte buffer paired with a monotone table of
// code-point start offsets. Values are safe to copy; Substring and
// Concat always allocate a fresh buffer.
//
// The store package is the one exception to immutability: it holds its
// concatenated text in a String and grows it in place via AppendInPlace,
// per the growing-buffer resource model.
type String struct {
	buf     []byte
	offsets []int
}

// Character is a reference to one code point, materialized as the byte
// slice between two adjacent offsets in the owning String. It is a
// borrowed view into that String's buffer.
type Character struct {
	data []byte
}

// Empty is the zero-value String: no bytes, no characters.
var Empty = String{}

// New validates buf as well-formed UTF-8 and builds its code-point
// offset table. It fails with an *dferr.InvalidUTF8Error naming the
// byte offset of the first malformed sequence.
func New(buf []byte) (String, error) {
	offsets, err := indexUTF8(buf)
	if err != nil {
		return String{}, err
	}
	return String{buf: buf, offsets: offsets}, nil
}

// EmptyWithCapacity returns an empty String whose backing buffer and
// offset table are pre-allocated to the given capacities, so that a
// sequence of AppendInPlace calls up to those sizes never reallocates.
func EmptyWithCapacity(byteCap, codePointCap int) String {
	if byteCap < 0 {
		byteCap = 0
	}
	if codePointCap < 0 {
		codePointCap = 0
	}
	return String{buf: make([]byte, 0, byteCap), offsets: make([]int, 0, codePointCap)}
}

// FromString is a convenience constructor for Go strings. A Go string
// can hold arbitrary bytes (a "\xff" escape is a legal literal), so it
// validates exactly as New does and can fail the same way.
func FromString(s string) (String, error) {
	return New([]byte(s))
}

// indexUTF8 scans buf left to right, rejecting any structurally invalid
// UTF-8, and returns the start byte offset of each accepted code point.
func indexUTF8(buf []byte) ([]int, error) {
	offsets := make([]int, 0, len(buf))
	i := 0
	n := len(buf)
	for i < n {
		b0 := buf[i]
		var size int
		switch {
		case b0&0x80 == 0x00: // 0xxxxxxx
			size = 1
		case b0&0xE0 == 0xC0: // 110xxxxx
			size = 2
		case b0&0xF0 == 0xE0: // 1110xxxx
			size = 3
		case b0&0xF8 == 0xF0: // 11110xxx
			size = 4
		default:
			return nil, &dferr.InvalidUTF8Error{Offset: i, Reason: fmt.Sprintf("invalid leading byte 0x%02X", b0)}
		}

		if i+size > n {
			return nil, &dferr.InvalidUTF8Error{Offset: i, Reason: "truncated sequence"}
		}

		for k := 1; k < size; k++ {
			if buf[i+k]&0xC0 != 0x80 {
				return nil, &dferr.InvalidUTF8Error{Offset: i, Reason: "malformed continuation byte"}
			}
		}

		switch size {
		case 2:
			if b0&0x1E == 0 {
				return nil, &dferr.InvalidUTF8Error{Offset: i, Reason: "overlong 2-byte encoding"}
			}
		case 3:
			if b0 == 0xE0 && buf[i+1]&0x20 == 0 {
				return nil, &dferr.InvalidUTF8Error{Offset: i, Reason: "overlong 3-byte encoding"}
			}
		case 4:
			if b0 == 0xF0 && buf[i+1]&0x30 == 0 {
				return nil, &dferr.InvalidUTF8Error{Offset: i, Reason: "overlong 4-byte encoding"}
			}
		}

		offsets = append(offsets, i)
		i += size
	}
	return offsets, nil
}

// Len returns the number of code points.
func (s String) Len() int {
	return len(s.offsets)
}

// Bytes returns the underlying UTF-8 buffer. Callers must not mutate it.
func (s String) Bytes() []byte {
	return s.buf
}

// At returns the code point at index i.
func (s String) At(i int) (Character, error) {
	if i < 0 || i >= len(s.offsets) {
		return Character{}, &dferr.OutOfRangeError{Op: "At", Detail: fmt.Sprintf("index %d, length %d", i, len(s.offsets))}
	}
	start := s.offsets[i]
	end := len(s.buf)
	if i+1 < len(s.offsets) {
		end = s.offsets[i+1]
	}
	return Character{data: s.buf[start:end]}, nil
}

// Characters returns every code point in order. It always allocates a
// new slice of Character values (each still borrowing from s.buf).
func (s String) Characters() []Character {
	out := make([]Character, len(s.offsets))
	for i := range s.offsets {
		out[i], _ = s.At(i)
	}
	return out
}

// Substring returns the code points [start, start+length).
func (s String) Substring(start, length int) (String, error) {
	if start < 0 || start > s.Len() || start+length > s.Len() || length < 0 {
		return String{}, &dferr.OutOfRangeError{Op: "Substring", Detail: fmt.Sprintf("start=%d length=%d string length=%d", start, length, s.Len())}
	}
	if length == 0 {
		return String{}, nil
	}
	byteStart := s.offsets[start]
	byteEnd := len(s.buf)
	if start+length < len(s.offsets) {
		byteEnd = s.offsets[start+length]
	}
	buf := make([]byte, byteEnd-byteStart)
	copy(buf, s.buf[byteStart:byteEnd])
	offsets := make([]int, length)
	for i := 0; i < length; i++ {
		offsets[i] = s.offsets[start+i] - byteStart
	}
	return String{buf: buf, offsets: offsets}, nil
}

// Concat returns a new String holding a's code points followed by b's.
func Concat(a, b String) String {
	buf := make([]byte, len(a.buf)+len(b.buf))
	copy(buf, a.buf)
	copy(buf[len(a.buf):], b.buf)
	offsets := make([]int, len(a.offsets)+len(b.offsets))
	copy(offsets, a.offsets)
	for i, off := range b.offsets {
		offsets[len(a.offsets)+i] = off + len(a.buf)
	}
	return String{buf: buf, offsets: offsets}
}

// AppendInPlace extends s with other's code points, in place. It is the
// one mutating operation on String, reserved for the document store's
// growing concatenated buffer.
func (s *String) AppendInPlace(other String) {
	base := len(s.buf)
	s.buf = append(s.buf, other.buf...)
	for _, off := range other.offsets {
		s.offsets = append(s.offsets, off+base)
	}
}

// Equal reports byte-wise equality, which for well-formed UTF-8
// coincides with scalar-sequence equality.
func (s String) Equal(other String) bool {
	return bytes.Equal(s.buf, other.buf)
}

// Less reports byte-wise (hence scalar) lexicographic order.
func (s String) Less(other String) bool {
	return bytes.Compare(s.buf, other.buf) < 0
}

// Bytes returns the character's underlying byte slice. Callers must not
// mutate it.
func (c Character) Bytes() []byte {
	return c.data
}

// Equal reports byte-wise character equality.
func (c Character) Equal(other Character) bool {
	return bytes.Equal(c.data, other.data)
}

// Less reports byte-wise character ordering.
func (c Character) Less(other Character) bool {
	return bytes.Compare(c.data, other.data) < 0
}

// String satisfies fmt.Stringer for debugging and test failure messages.
func (c Character) String() string {
	return string(c.data)
}

// String satisfies fmt.Stringer for debugging and test failure messages.
func (s String) String() string {
	return string(s.buf)
}
