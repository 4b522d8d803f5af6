//go:build windows

package index

import (
	"encoding/binary"
	"unicode/utf16"
)

// encodePath returns path encoded as raw UTF-16LE bytes, the native
// wide-character form Windows paths are stored in, so non-UTF-8-
// representable paths still round-trip through the document table
// (spec.md §6).
func encodePath(path string) []byte {
	wide := utf16.Encode([]rune(path))
	b := make([]byte, len(wide)*2)
	for i, u := range wide {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	return b
}

// decodePath is the inverse of encodePath.
func decodePath(b []byte) string {
	wide := make([]uint16, len(b)/2)
	for i := range wide {
		wide[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(wide))
}
