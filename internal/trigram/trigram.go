// Package trigram extracts the set of distinct trigrams used to index
// a file, applying the printable/UTF-8-lead predicate from textclass
// to reject binary files outright.
//
// The sliding-window read pattern (read 3 bytes, rewind 2) is
// conceptually the one the spec describes in its design notes; this
// implementation instead keeps a 3-byte ring buffer fed one byte at a
// time from a bufio.Reader, which the spec notes is an equivalent,
// seek-free reimplementation. The rolling-window shape itself is
// grounded on the teacher's Writer.Add in index/write.go, which keeps
// a 24-bit rolling window (tv) fed one byte at a time from the same
// kind of buffered reader.
package trigram

import (
	"bufio"
	"errors"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/kcsearch/kcs/internal/textclass"
)

// ErrBinaryFile is returned by Extract when a byte window fails the
// printable/UTF-8-lead predicate, indicating the input should be
// treated as a binary file and excluded from the index.
var ErrBinaryFile = errors.New("trigram: file is binary or uses an unrecognized encoding")

// Trigram is a 3-byte sequence.
type Trigram [3]byte

// Extract reads r to EOF and returns the set of distinct trigrams it
// contains. Trigrams are derived from every 3-byte window whose bytes
// all pass textclass.TextLike and whose 3 bytes, decoded as UTF-8,
// form a string in which every character is alphanumeric; ASCII bytes
// in the result are lowercased. A window that fails TextLike aborts
// the whole file with ErrBinaryFile. A reader with fewer than 3 bytes
// yields an empty, error-free set.
func Extract(r io.Reader) (map[Trigram]struct{}, error) {
	br := bufio.NewReader(r)
	trigrams := make(map[Trigram]struct{})

	var window [3]byte
	filled := 0
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return trigrams, nil
			}
			return nil, err
		}
		window[0], window[1], window[2] = window[1], window[2], b
		if filled < 3 {
			filled++
			if filled < 3 {
				continue
			}
		}

		if !textclass.TextLike(window) {
			return nil, ErrBinaryFile
		}

		if t, ok := classify(window); ok {
			trigrams[t] = struct{}{}
		}
	}
}

// classify reports whether window decodes as valid UTF-8 in which
// every character is alphanumeric, returning the trigram with its
// ASCII bytes lowercased if so.
func classify(window [3]byte) (Trigram, bool) {
	s := string(window[:])
	if !utf8.ValidString(s) {
		return Trigram{}, false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return Trigram{}, false
		}
	}
	out := window
	for i, b := range out {
		if b >= 'A' && b <= 'Z' {
			out[i] = b | 0x20
		}
	}
	return out, true
}
