package index

import (
	"bufio"
	"encoding/binary"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/kcsearch/kcs/internal/bitmap"
	"github.com/kcsearch/kcs/internal/trigram"
	"github.com/kcsearch/kcs/internal/walk"
)

// Sink receives progress notifications while an index is built or
// updated. It is satisfied by *schollz/progressbar/v3.ProgressBar,
// keeping progress reporting (an external collaborator per spec.md
// §1) out of this package's own dependencies. A nil Sink disables
// progress reporting.
type Sink interface {
	Add(delta int) error
}

type noopSink struct{}

func (noopSink) Add(int) error { return nil }

// document is one file's extracted content during Create/Update: its
// path and the set of trigrams it contains.
type document struct {
	path     string
	trigrams map[trigram.Trigram]struct{}
}

// Create walks root with w, extracts trigrams from every regular file
// it yields, inverts the result into a sorted posting-list table, and
// writes a new index file at path. Per-file extraction failures
// (binary files, unreadable files) are logged and skipped; they are
// not fatal to the build. Document ordinals are assigned in walk
// enumeration order (spec.md §5): this implementation does not sort
// paths the way original_source/src/index.rs does, since spec.md's
// ordering guarantee is explicit about enumeration order being the
// source of ordinal identity.
//
// Grounded on the teacher's cmd/cindex/cindex.go main loop (walk,
// skip hidden/temp files, AddFile, Flush) and index/write.go's
// overall create/write shape, adapted to the simpler fixed-width
// bitmap format this package implements instead of teacher's varint
// posting-delta format.
func Create(path, root string, w walk.Walker, progress Sink) (*Index, error) {
	if progress == nil {
		progress = noopSink{}
	}

	var docs []document
	err := w.Walk(root, func(p string, d fs.DirEntry, err error) error {
		if defaultSkip(p) {
			if d != nil && d.IsDir() {
				return walk.SkipDir
			}
			return nil
		}
		if err != nil {
			log.Printf("%s: %s", p, err)
			return nil
		}
		if d == nil || !d.Type().IsRegular() {
			return nil
		}
		doc, ok, err := extractDocument(p)
		if err != nil {
			log.Printf("skip %s: %s", p, err)
			return nil
		}
		if ok {
			docs = append(docs, doc)
		}
		progress.Add(1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := writeIndexFile(path, docs); err != nil {
		return nil, err
	}
	return Load(path)
}

// extractDocument extracts the trigram set of the regular file at
// path. ok is false (with no error) if the file yielded no trigrams
// at all, in which case it contributes nothing to the index and is
// not recorded as a document (spec.md §4.5 step 2).
func extractDocument(path string) (doc document, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return document{}, false, err
	}
	defer f.Close()
	trigrams, err := trigram.Extract(bufio.NewReader(f))
	if err != nil {
		return document{}, false, err
	}
	if len(trigrams) == 0 {
		return document{}, false, nil
	}
	return document{path: path, trigrams: trigrams}, true, nil
}

// defaultSkip reports whether path names a temporary or hidden file
// or directory that should never be indexed, matching the teacher's
// cmd/cindex/cindex.go defaultSkip.
func defaultSkip(path string) bool {
	base := filepath.Base(path)
	if base == "" || base == "." || base == ".." {
		return false
	}
	return base[0] == '.' || base[0] == '#' || base[0] == '~' || base[len(base)-1] == '~'
}

// invert builds the sorted posting-list table for docs: for every
// (ordinal, trigram) pair, set the corresponding bit of that
// trigram's bitmap.
func invert(docs []document) []postingEntry {
	width := len(docs)
	table := make(map[trigram.Trigram]bitmap.Bitmap)
	for i, doc := range docs {
		for t := range doc.trigrams {
			bm, ok := table[t]
			if !ok {
				bm = bitmap.New(width)
				table[t] = bm
			}
			bm.Set(i, true)
		}
	}
	entries := make([]postingEntry, 0, len(table))
	for t, bm := range table {
		entries = append(entries, postingEntry{trigram: t, bm: bm})
	}
	sort.Slice(entries, func(i, j int) bool {
		return lessTrigram(entries[i].trigram, entries[j].trigram)
	})
	return entries
}

type postingEntry struct {
	trigram trigram.Trigram
	bm      bitmap.Bitmap
}

func lessTrigram(a, b trigram.Trigram) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// writeIndexFile writes a complete index file for docs to path:
// header, sorted posting-list table, then document table in ordinal
// order (spec.md §4.4).
func writeIndexFile(path string, docs []document) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeIndexFile(f, docs)
}

func encodeIndexFile(f *os.File, docs []document) error {
	entries := invert(docs)

	hdr := header{
		documentCount: uint32(len(docs)),
		ngramCount:    uint32(len(entries)),
	}
	w := bufio.NewWriter(f)
	if _, err := w.Write(encodeHeader(hdr)); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := w.Write(e.trigram[:]); err != nil {
			return err
		}
		if _, err := w.Write(e.bm.Bytes()); err != nil {
			return err
		}
	}
	lenBuf := make([]byte, 4)
	for _, doc := range docs {
		raw := encodePath(doc.path)
		binary.BigEndian.PutUint32(lenBuf, uint32(len(raw)))
		if _, err := w.Write(lenBuf); err != nil {
			return err
		}
		if _, err := w.Write(raw); err != nil {
			return err
		}
	}
	return w.Flush()
}
