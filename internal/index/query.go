package index

import (
	"sort"
	"strings"

	"github.com/kcsearch/kcs/internal/bitmap"
	"github.com/kcsearch/kcs/internal/rank"
	"github.com/kcsearch/kcs/internal/trigram"
)

// Result is one scored, ranked match from Query, in the shape the CLI
// prints directly (spec.md §4.7's "top-5 by score").
type Result struct {
	Path     string
	Score    int
	Previews []rank.Preview
}

// Query extracts trigrams from terms, OR-accumulates the candidate
// bitmap across every query trigram's posting list, ranks every
// candidate document with internal/rank.Rank, and returns at most the
// five highest-scoring results, highest first. Ties are left in
// whatever order sort.SliceStable happens to encounter them, since
// neither spec.md nor original_source/src/main.rs's documents.sort_by
// defines a secondary key.
//
// Grounded on original_source/src/main.rs's search: candidate trigram
// extraction, OR-accumulation via repeated find_trigram, then one
// rank_file call per set bit.
func (ix *Index) Query(terms []string) ([]Result, error) {
	return ix.queryVerbose(terms, nil)
}

// QueryVerbose behaves like Query but additionally calls report, if
// non-nil, once per query trigram with its posting list's Count() —
// the number of documents containing it — before candidates are
// narrowed down further by ranking. Used by cmd/codesearch's -verbose
// flag.
func (ix *Index) QueryVerbose(terms []string, report func(t [3]byte, count int)) ([]Result, error) {
	return ix.queryVerbose(terms, report)
}

func (ix *Index) queryVerbose(terms []string, report func(t [3]byte, count int)) ([]Result, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	queryTrigrams := queryTrigramsOf(terms)

	candidates := bitmap.New(int(ix.documentCount))
	for _, t := range queryTrigrams {
		bm, ok, err := ix.PostingList(t)
		if err != nil {
			return nil, err
		}
		if ok {
			if report != nil {
				report([3]byte(t), bm.Count())
			}
			candidates.OrInto(bm)
		} else if report != nil {
			report([3]byte(t), 0)
		}
	}

	var results []Result
	for i := 0; i < int(ix.documentCount); i++ {
		if !candidates.Get(i) {
			continue
		}
		path, err := ix.Name(uint32(i))
		if err != nil {
			return nil, err
		}
		score, previews, err := rank.Rank(path, terms, rawTrigrams(queryTrigrams))
		if err != nil {
			continue
		}
		results = append(results, Result{Path: path, Score: score, Previews: previews})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > 5 {
		results = results[:5]
	}
	return results, nil
}

// queryTrigramsOf extracts the trigrams of each term separately and
// appends them in term order, so a trigram shared by two terms appears
// once per term. A term that Extract rejects contributes no trigrams.
func queryTrigramsOf(terms []string) []trigram.Trigram {
	var out []trigram.Trigram
	for _, term := range terms {
		trigrams, err := trigram.Extract(strings.NewReader(term))
		if err != nil {
			continue
		}
		for t := range trigrams {
			out = append(out, t)
		}
	}
	return out
}

func rawTrigrams(ts []trigram.Trigram) [][3]byte {
	out := make([][3]byte, len(ts))
	for i, t := range ts {
		out[i] = [3]byte(t)
	}
	return out
}
