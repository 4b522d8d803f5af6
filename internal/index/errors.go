package index

import (
	"errors"
	"fmt"
)

// ErrInvalidHeader is returned by Load when the file's magic bytes are
// absent or corrupt.
var ErrInvalidHeader = errors.New("index: invalid header")

// ErrCorrupt is returned when a table read lands outside the file or
// otherwise cannot be a valid record; it wraps the same underlying
// condition teacher's index/read.go calls "corrupt index".
var ErrCorrupt = errors.New("index: corrupt index file")

// UnsupportedNGramLengthError is returned by Load when the header
// declares an n-gram width other than 3.
type UnsupportedNGramLengthError struct {
	Length byte
}

func (e *UnsupportedNGramLengthError) Error() string {
	return fmt.Sprintf("index: unsupported n-gram length %d", e.Length)
}

// Is reports whether target is an *UnsupportedNGramLengthError,
// ignoring the specific length, so callers can use
// errors.Is(err, &UnsupportedNGramLengthError{}).
func (e *UnsupportedNGramLengthError) Is(target error) bool {
	_, ok := target.(*UnsupportedNGramLengthError)
	return ok
}
