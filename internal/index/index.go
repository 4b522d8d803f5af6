package index

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kcsearch/kcs/internal/bitmap"
	"github.com/kcsearch/kcs/internal/trigram"
)

// An Index implements read-only access to a trigram index file,
// backed by random-access reads against the open file rather than an
// in-memory copy, matching the teacher's approach of treating the
// index file as a lookup table rather than loading it wholesale
// (index/read.go's mmap-backed Index, here replaced by os.File.ReadAt
// since the simplified format has no merge/mmap requirement of its
// own).
type Index struct {
	f    *os.File
	path string

	documentCount uint32
	ngramCount    uint32

	postingTableOffset int64
	postingRecordLen   int
	bitmapLen          int

	docTableOffset int64
	// docOffsets holds the byte offset of each document's length
	// prefix, relative to docTableOffset, plus one trailing entry for
	// the end of the table. Built once at Load time so that looking
	// up an arbitrary ordinal does not require rescanning every
	// preceding record (spec.md §9's "building an in-memory offset
	// table at load would be a straight win").
	docOffsets []uint32

	loadedAt time.Time
}

// Load opens the index file at path and reads its header and
// document-table offsets. Load fails with ErrInvalidHeader or
// *UnsupportedNGramLengthError if the file is not a recognizable
// index; callers typically respond by calling Create (spec.md §7).
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	hdrBuf := make([]byte, headerLen)
	n, err := f.ReadAt(hdrBuf, 0)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, err
	}
	hdr, err := decodeHeader(hdrBuf[:n])
	if err != nil {
		f.Close()
		return nil, err
	}

	bitmapLen := bitmapByteLen(hdr.documentCount)
	recLen := postingRecordLen(hdr.documentCount)
	postingTableOffset := int64(headerLen)
	postingTableLen := int64(hdr.ngramCount) * int64(recLen)
	docTableOffset := postingTableOffset + postingTableLen

	ix := &Index{
		f:                   f,
		path:                path,
		documentCount:       hdr.documentCount,
		ngramCount:          hdr.ngramCount,
		postingTableOffset:  postingTableOffset,
		postingRecordLen:    recLen,
		bitmapLen:           bitmapLen,
		docTableOffset:      docTableOffset,
		loadedAt:            st.ModTime(),
	}
	if err := ix.scanDocOffsets(); err != nil {
		f.Close()
		return nil, err
	}
	return ix, nil
}

// scanDocOffsets walks the document table once, recording the start
// offset of each record, to support O(1) lookup by ordinal afterward.
func (ix *Index) scanDocOffsets() error {
	ix.docOffsets = make([]uint32, 0, ix.documentCount+1)
	var off uint32
	lenBuf := make([]byte, 4)
	for i := uint32(0); i < ix.documentCount; i++ {
		ix.docOffsets = append(ix.docOffsets, off)
		if _, err := ix.f.ReadAt(lenBuf, ix.docTableOffset+int64(off)); err != nil {
			return fmt.Errorf("index: reading document table: %w: %w", ErrCorrupt, err)
		}
		recLen := binary.BigEndian.Uint32(lenBuf)
		off += 4 + recLen
	}
	ix.docOffsets = append(ix.docOffsets, off)
	return nil
}

// Close releases the index file handle.
func (ix *Index) Close() error {
	return ix.f.Close()
}

// reload replaces ix's file handle and derived offsets with a freshly
// opened copy of the file at ix.path, used by Update after it rewrites
// the file in place so existing *Index references stay valid.
func (ix *Index) reload() error {
	fresh, err := Load(ix.path)
	if err != nil {
		return err
	}
	ix.f.Close()
	*ix = *fresh
	return nil
}

// DocumentCount returns the number of documents in the index.
func (ix *Index) DocumentCount() uint32 { return ix.documentCount }

// NgramCount returns the number of distinct trigrams in the index.
func (ix *Index) NgramCount() uint32 { return ix.ngramCount }

// ModTime returns the index file's modification time as observed at
// Load. Update uses this to decide whether any file in the tree is
// newer than the index.
func (ix *Index) ModTime() time.Time { return ix.loadedAt }

// Path returns the path the index was loaded from.
func (ix *Index) Path() string { return ix.path }

// Name returns the path of the document with the given ordinal.
func (ix *Index) Name(ordinal uint32) (string, error) {
	if ordinal >= ix.documentCount {
		return "", fmt.Errorf("index: document ordinal %d out of range", ordinal)
	}
	start := ix.docOffsets[ordinal]
	end := ix.docOffsets[ordinal+1]
	buf := make([]byte, end-start)
	if _, err := ix.f.ReadAt(buf, ix.docTableOffset+int64(start)); err != nil {
		return "", fmt.Errorf("index: reading document %d: %w: %w", ordinal, ErrCorrupt, err)
	}
	recLen := binary.BigEndian.Uint32(buf[:4])
	return decodePath(buf[4 : 4+recLen]), nil
}

// Names returns every document path, in ordinal order.
func (ix *Index) Names() ([]string, error) {
	names := make([]string, ix.documentCount)
	for i := range names {
		name, err := ix.Name(uint32(i))
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// PostingList returns the posting-list bitmap for t, or ok == false if
// t does not appear in any indexed document.
//
// The search window [start, end) narrows by ordinary binary search
// over the sorted posting-list table: a less-than step pulls end down
// to the midpoint, a greater-than step pushes start up to one past
// the midpoint, and the loop ends when start == end.
//
// spec.md §4.7 describes the midpoint recomputation as asymmetric
// (floor division after a less-than step, floor division plus one
// after a greater-than step), which original_source/src/index.rs
// pairs with rec = ngram_count/2+1 and a strict rec > start guard —
// that combination never directly tests record 0 once the window has
// narrowed down to it, so any trigram sorting first in the table is
// unfindable. A prior revision here tried to keep the "+1" recompute
// literally while starting from the ordinary midpoint and allowing
// rec == start; that fixed record 0 but instead lost the *last*
// record whenever the surviving window narrowed to size 2 (the extra
// +1 pushes rec past end, e.g. ngram_count == 4 searching for record
// 3: start=0,end=4,rec=2, greater-than gives start=2,rec=4, which
// immediately exits the loop with end still 4). Both variants violate
// the round-trip property in spec.md §8 ("Binary-searching any
// trigram present in the original returns its posting list"), so this
// implementation uses an ordinary start/end-converge binary search
// instead of the literal asymmetric recompute rule.
func (ix *Index) PostingList(t trigram.Trigram) (bm bitmap.Bitmap, ok bool, err error) {
	if ix.ngramCount == 0 {
		return bitmap.Bitmap{}, false, nil
	}
	start := uint32(0)
	end := ix.ngramCount

	recBuf := make([]byte, ix.bitmapLen)
	var triBuf [3]byte
	for start < end {
		rec := start + (end-start)/2
		off := ix.postingTableOffset + int64(rec)*int64(ix.postingRecordLen)
		if _, err := ix.f.ReadAt(triBuf[:], off); err != nil {
			return bitmap.Bitmap{}, false, fmt.Errorf("index: reading posting table: %w: %w", ErrCorrupt, err)
		}
		switch compareTrigram(t, triBuf) {
		case -1:
			end = rec
		case 0:
			if _, err := ix.f.ReadAt(recBuf, off+3); err != nil {
				return bitmap.Bitmap{}, false, fmt.Errorf("index: reading posting bitmap: %w: %w", ErrCorrupt, err)
			}
			out := make([]byte, len(recBuf))
			copy(out, recBuf)
			return bitmap.FromBytes(out), true, nil
		case 1:
			start = rec + 1
		}
	}
	return bitmap.Bitmap{}, false, nil
}

func compareTrigram(t trigram.Trigram, b [3]byte) int {
	for i := 0; i < 3; i++ {
		if t[i] < b[i] {
			return -1
		}
		if t[i] > b[i] {
			return 1
		}
	}
	return 0
}
