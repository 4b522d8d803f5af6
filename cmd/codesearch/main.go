// Command codesearch builds (or loads) a trigram index of the current
// directory tree and searches it for the given query terms, printing
// the five best-ranked matches with preview snippets.
//
// Grounded on original_source/src/main.rs's top-level flow
// (get_save_path, load-or-create, search, print top 5) and the
// teacher's cmd/csearch and cmd/cindex for Go CLI conventions: a
// usage string installed as flag.Usage, flag.Bool/String for options,
// log.Fatal on unrecoverable setup errors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/kcsearch/kcs/internal/index"
	"github.com/kcsearch/kcs/internal/walk"
)

var usageMessage = `usage: codesearch [-gitignore] [-watch] term...

codesearch searches an index of the current directory tree for the
given terms and prints the five best-ranked matches.

If no usable index exists at the cache path for this directory, one is
built first. Run with no terms to just (re)build the index.

The -gitignore flag restricts indexing to files .gitignore would not
exclude. The -watch flag keeps codesearch running after the initial
search, rebuilding the index whenever a watched file changes.
`

func usage() {
	fmt.Fprint(os.Stderr, usageMessage)
	os.Exit(2)
}

var (
	gitignoreFlag = flag.Bool("gitignore", false, "honor .gitignore files while indexing")
	watchFlag     = flag.Bool("watch", false, "keep running, updating the index on filesystem changes")
	verboseFlag   = flag.Bool("verbose", false, "print extra diagnostic information")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	terms := flag.Args()

	path, err := indexPath()
	if err != nil {
		log.Fatalf("locating index cache: %s", err)
	}

	w, err := newWalker(*gitignoreFlag)
	if err != nil {
		log.Fatalf("setting up walker: %s", err)
	}

	ix, err := loadOrCreate(path, w)
	if err != nil {
		log.Fatalf("index: %s", err)
	}
	defer ix.Close()

	if len(terms) == 0 {
		fmt.Printf("indexed %s documents, %s trigrams\n",
			humanize.Comma(int64(ix.DocumentCount())), humanize.Comma(int64(ix.NgramCount())))
	} else {
		var report func(t [3]byte, count int)
		if *verboseFlag {
			report = func(t [3]byte, count int) {
				log.Printf("trigram %q: %d candidate documents", string(t[:]), count)
			}
		}
		results, err := ix.QueryVerbose(terms, report)
		if err != nil {
			log.Fatalf("query: %s", err)
		}
		printResults(results)
	}

	if *watchFlag {
		if err := watch(ix, ".", w); err != nil {
			log.Fatalf("watch: %s", err)
		}
	}
}

func newWalker(honorGitignore bool) (walk.Walker, error) {
	if honorGitignore {
		return walk.NewGitignoreWalker()
	}
	return walk.NewPlainWalker(), nil
}

// loadOrCreate loads the index at path, updating it if stale, falling
// back to building a fresh one at path if it does not exist or is not
// recognizable. Grounded on original_source/src/main.rs's
// Index::load(...).and_then(update).or_else(create) chain.
func loadOrCreate(path string, w walk.Walker) (*index.Index, error) {
	ix, err := index.Load(path)
	if err == nil {
		if _, err := index.Update(ix, ".", w, nil); err != nil {
			return nil, err
		}
		return ix, nil
	}

	var ngramErr *index.UnsupportedNGramLengthError
	if !os.IsNotExist(err) && !errors.Is(err, index.ErrInvalidHeader) && !errors.As(err, &ngramErr) {
		return nil, err
	}

	bar := progressbar.Default(-1, "indexing")
	defer bar.Finish()
	return index.Create(path, ".", w, bar)
}

func printResults(results []index.Result) {
	bold := color.New(color.Bold)
	for _, r := range results {
		fmt.Printf("%s (%d)\n", bold.Sprint(r.Path), r.Score)
		for _, p := range r.Previews {
			fmt.Printf("\t%s\t%s\n", bold.Sprint(p.Line), p.Prefix)
		}
	}
}
