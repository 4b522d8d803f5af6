package index

import (
	"io/fs"

	"github.com/kcsearch/kcs/internal/trigram"
	"github.com/kcsearch/kcs/internal/walk"
)

// Update re-walks root and rewrites ix's backing file in place if any
// indexed file has changed, been added, or been removed since ix was
// loaded. ix itself is mutated to reflect the rewritten file, so
// callers holding ix keep using the same value; changed reports
// whether a rewrite happened.
//
// Freshness is decided purely by comparing the walk's current path set
// and each file's mtime against ix.ModTime() (spec.md §4.6); content
// hashing is out of scope. When stale, documents whose file is
// unchanged keep their trigram set by reconstructing it from the
// existing posting table (scanning every posting's bit for the
// document's old ordinal) rather than re-reading and re-extracting the
// file, at the O(ngram_count·document_count) cost spec.md §9 calls out
// as a known, accepted inefficiency. The rewrite overwrites ix's file
// directly: per spec.md's Non-goals, the index is not transactional,
// so a crash mid-write can leave it invalid, matching
// original_source/src/index.rs's update (left unimplemented there;
// this is new work grounded on Create's writer and teacher's
// index/merge.go's general shape of "rebuild postings from a
// document set").
func Update(ix *Index, root string, w walk.Walker, progress Sink) (changed bool, err error) {
	if progress == nil {
		progress = noopSink{}
	}

	oldNames, err := ix.Names()
	if err != nil {
		return false, err
	}
	oldOrdinal := make(map[string]uint32, len(oldNames))
	for i, name := range oldNames {
		oldOrdinal[name] = uint32(i)
	}

	type seen struct {
		path    string
		modTime int64
	}
	var current []seen
	err = w.Walk(root, func(p string, d fs.DirEntry, err error) error {
		if defaultSkip(p) {
			if d != nil && d.IsDir() {
				return walk.SkipDir
			}
			return nil
		}
		if err != nil || d == nil || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		current = append(current, seen{path: p, modTime: info.ModTime().UnixNano()})
		return nil
	})
	if err != nil {
		return false, err
	}

	stale := len(current) != len(oldNames)
	currentPaths := make(map[string]bool, len(current))
	for _, c := range current {
		currentPaths[c.path] = true
		if _, ok := oldOrdinal[c.path]; !ok {
			stale = true
		}
		if c.modTime > ix.ModTime().UnixNano() {
			stale = true
		}
	}
	if !stale {
		for _, name := range oldNames {
			if !currentPaths[name] {
				stale = true
				break
			}
		}
	}
	if !stale {
		return false, nil
	}

	docs := make([]document, 0, len(current))
	for _, c := range current {
		var (
			doc document
			ok  bool
		)
		if ordinal, existed := oldOrdinal[c.path]; existed && c.modTime <= ix.ModTime().UnixNano() {
			trigrams, terr := reconstructTrigrams(ix, ordinal)
			if terr != nil {
				return false, terr
			}
			if len(trigrams) > 0 {
				doc, ok = document{path: c.path, trigrams: trigrams}, true
			}
		} else {
			var derr error
			doc, ok, derr = extractDocument(c.path)
			if derr != nil {
				continue
			}
		}
		if ok {
			docs = append(docs, doc)
		}
		progress.Add(1)
	}

	if err := writeIndexFile(ix.Path(), docs); err != nil {
		return false, err
	}
	if err := ix.reload(); err != nil {
		return false, err
	}
	return true, nil
}

// reconstructTrigrams recovers the trigram set belonging to the
// document at ordinal by scanning every posting list in ix for a set
// bit at that ordinal. This avoids re-reading the document's file, at
// the cost of one full posting-table scan per preserved document.
func reconstructTrigrams(ix *Index, ordinal uint32) (map[trigram.Trigram]struct{}, error) {
	out := make(map[trigram.Trigram]struct{})
	recBuf := make([]byte, ix.bitmapLen)
	var triBuf [3]byte
	for rec := uint32(0); rec < ix.ngramCount; rec++ {
		off := ix.postingTableOffset + int64(rec)*int64(ix.postingRecordLen)
		if _, err := ix.f.ReadAt(triBuf[:], off); err != nil {
			return nil, err
		}
		if _, err := ix.f.ReadAt(recBuf, off+3); err != nil {
			return nil, err
		}
		byteIdx := ordinal / 8
		if int(byteIdx) >= len(recBuf) {
			continue
		}
		if recBuf[byteIdx]&(1<<(ordinal%8)) != 0 {
			var t trigram.Trigram
			copy(t[:], triBuf[:])
			out[t] = struct{}{}
		}
	}
	return out, nil
}
