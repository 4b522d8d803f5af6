// Package rank scores a candidate document against a query and
// extracts preview snippets, the last step of the query engine
// (spec.md §4.7). Scoring is grounded on
// original_source/src/search_rank.rs's rank_file (phrase/term/trigram
// weights), carried into Go idiom rather than translated line for
// line; the preview model itself is spec.md §4.7 step 5's
// (line_number, line_prefix) pair, a deliberate departure from
// search_rank.rs's byte-window get_preview.
package rank

import (
	"os"
	"sort"
	"strings"
)

// Scoring weights, named rather than left as magic numbers
// (SPEC_FULL.md §4.7), matching the values search_rank.rs uses.
const (
	phraseWeight  = 100
	termWeight    = 10
	trigramWeight = 1
)

// Preview is a (line_number, line_prefix) pair (spec.md §4.7 step 5):
// the 1-based number of the first line of the document containing a
// scoring match, and that line's trimmed content truncated to 50
// bytes.
type Preview struct {
	Line   int
	Prefix string
}

// Rank scores the file at path against terms (the whitespace-split
// query, in order) and queryTrigrams (the trigrams extracted from the
// query string), and collects a deduplicated, line-ordered list of
// preview snippets for every match found. Rank re-reads path's
// contents directly: it is called only for documents the
// OR-candidate bitmap already narrowed down to, so this second read
// is bounded by the result set, not the corpus (spec.md §4.7).
//
// Matching runs against C, the lowercased contents (spec.md §4.7
// step 4); terms are lowercased to match, since query trigrams are
// already ASCII-lowercased at extraction time (§4.7 step 1) and C
// would otherwise never contain a mixed-case term.
func Rank(path string, terms []string, queryTrigrams [][3]byte) (score int, previews []Preview, err error) {
	if len(terms) == 0 {
		return 0, nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	contents := strings.ToLower(string(raw))

	lowerTerms := make([]string, len(terms))
	for i, term := range terms {
		lowerTerms[i] = strings.ToLower(term)
	}

	var seen []Preview
	add := func(p Preview) {
		for _, existing := range seen {
			if existing == p {
				return
			}
		}
		seen = append(seen, p)
	}

	// Exact phrase: every term in order, separated only by whitespace.
	if start := strings.Index(contents, lowerTerms[0]); start >= 0 {
		rest := strings.TrimLeft(contents[start+len(lowerTerms[0]):], " \t\r\n")
		matched := true
		for _, term := range lowerTerms[1:] {
			if strings.HasPrefix(rest, term) {
				rest = strings.TrimLeft(rest[len(term):], " \t\r\n")
			} else {
				matched = false
				break
			}
		}
		if matched {
			length := 0
			for _, term := range lowerTerms {
				length += len(term)
			}
			score += length * phraseWeight
			add(previewAt(contents, start))
		}
	}

	for _, term := range lowerTerms {
		if i := strings.Index(contents, term); i >= 0 {
			score += len(term) * termWeight
			add(previewAt(contents, i))
		}
	}

	for _, t := range queryTrigrams {
		if i := strings.Index(contents, string(t[:])); i >= 0 {
			score += trigramWeight
			add(previewAt(contents, i))
		}
	}

	sort.Slice(seen, func(i, j int) bool { return seen[i].Line < seen[j].Line })
	return score, seen, nil
}

// previewAt returns the (line_number, line_prefix) pair for the line
// of contents containing byte offset pos: pos's 1-based line number,
// and that line's trimmed content truncated to 50 bytes (spec.md
// §4.7 step 5).
func previewAt(contents string, pos int) Preview {
	line := 1 + strings.Count(contents[:pos], "\n")

	lineStart := pos
	for lineStart > 0 && contents[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := pos
	for lineEnd < len(contents) && contents[lineEnd] != '\n' {
		lineEnd++
	}

	prefix := strings.TrimSpace(contents[lineStart:lineEnd])
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}
	return Preview{Line: line, Prefix: prefix}
}
