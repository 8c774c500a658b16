package codepoint

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mtreilly/dupfind/internal/dferr"
)

func TestNewValid(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"ascii", "hello", 5},
		{"empty", "", 0},
		{"two byte", "héllo", 5},
		{"three byte", "გამარჯობა", 9},
		{"four byte", "😀😁", 2},
		{"mixed", "a😀ბ", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := FromString(tc.in)
			if err != nil {
				t.Fatalf("FromString(%q): %v", tc.in, err)
			}
			if s.Len() != tc.want {
				t.Fatalf("Len() = %d, want %d", s.Len(), tc.want)
			}
		})
	}
}

func TestNewRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
	}{
		{"stray continuation", []byte{0x80}},
		{"truncated two byte", []byte{0xC2}},
		{"truncated three byte", []byte{0xE0, 0xA0}},
		{"invalid leading byte", []byte{0xFF}},
		{"overlong two byte", []byte{0xC0, 0x80}},
		{"overlong three byte", []byte{0xE0, 0x80, 0x80}},
		{"overlong four byte", []byte{0xF0, 0x80, 0x80, 0x80}},
		{"bad continuation", []byte{0xC2, 0x20}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.in)
			if err == nil {
				t.Fatalf("New(%v): want error, got nil", tc.in)
			}
			var utfErr *dferr.InvalidUTF8Error
			if !errors.As(err, &utfErr) {
				t.Fatalf("New(%v): error %v is not *dferr.InvalidUTF8Error", tc.in, err)
			}
		})
	}
}

func TestSubstringRoundTrip(t *testing.T) {
	s, err := FromString("banana")
	if err != nil {
		t.Fatal(err)
	}
	full, err := s.Substring(0, s.Len())
	if err != nil {
		t.Fatalf("Substring: %v", err)
	}
	if !bytes.Equal(full.Bytes(), s.Bytes()) {
		t.Fatalf("round trip: got %q, want %q", full.Bytes(), s.Bytes())
	}
	if len(s.Characters()) != s.Len() {
		t.Fatalf("Characters() length = %d, want %d", len(s.Characters()), s.Len())
	}
}

func TestSubstringOutOfRange(t *testing.T) {
	s, _ := FromString("abc")
	if _, err := s.Substring(2, 5); err == nil {
		t.Fatal("want out-of-range error")
	}
	if _, err := s.Substring(4, 0); err == nil {
		t.Fatal("want out-of-range error")
	}
}

func TestConcatLength(t *testing.T) {
	a, _ := FromString("foo")
	b, _ := FromString("bar")
	c := Concat(a, b)
	if c.Len() != a.Len()+b.Len() {
		t.Fatalf("Concat length = %d, want %d", c.Len(), a.Len()+b.Len())
	}
	if c.String() != "foobar" {
		t.Fatalf("Concat bytes = %q, want %q", c.String(), "foobar")
	}
}

func TestAppendInPlace(t *testing.T) {
	s, _ := FromString("foo")
	other, _ := FromString("bar")
	s.AppendInPlace(other)
	if s.String() != "foobar" {
		t.Fatalf("AppendInPlace result = %q, want %q", s.String(), "foobar")
	}
	if s.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", s.Len())
	}
}

func TestLess(t *testing.T) {
	a, _ := FromString("abc")
	b, _ := FromString("abd")
	if !a.Less(b) {
		t.Fatal("want a < b")
	}
	if b.Less(a) {
		t.Fatal("want !(b < a)")
	}
}

func TestAtMatchesIteration(t *testing.T) {
	s, _ := FromString("aბc")
	for i, c := range s.Characters() {
		got, err := s.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if !got.Equal(c) {
			t.Fatalf("At(%d) = %q, Characters()[%d] = %q", i, got, i, c)
		}
	}
	if _, err := s.At(s.Len()); err == nil {
		t.Fatal("At(length): want out-of-range error")
	}
}
