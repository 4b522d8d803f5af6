// Package walk enumerates the files under a directory tree for the
// indexer to consume. It is explicitly an external collaborator of
// the core index (spec.md §1): the core only ever receives a stream
// of (path, fs.DirEntry) pairs and does not know how they were
// produced.
//
// Adapted from the teacher's walk/walk.go and walk/gitignore.go
// (andrewarchi/codesearch), which split Cox's codesearch walker into
// a plain lexical walker and one that additionally honors global and
// per-directory .gitignore files via go-git's gitignore matcher.
package walk

import (
	"bufio"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// SkipDir instructs Walk to skip the directory named in the current
// call to Func.
var SkipDir = fs.SkipDir

// Func is called once per file or directory visited by Walk.
type Func = fs.WalkDirFunc

// A Walker enumerates the file tree rooted at a path.
type Walker interface {
	Walk(root string, fn Func) error
}

// plainWalker walks the filesystem with no ignore-file awareness.
type plainWalker struct{}

// NewPlainWalker returns a Walker that visits every file and
// directory with no filtering.
func NewPlainWalker() Walker { return plainWalker{} }

func (plainWalker) Walk(root string, fn Func) error {
	return filepath.WalkDir(root, fn)
}

// gitignoreWalker walks the filesystem, skipping paths matched by the
// system, global, and per-directory .gitignore files it encounters.
type gitignoreWalker struct {
	ps []gitignore.Pattern
	m  gitignore.Matcher
}

// NewGitignoreWalker returns a Walker that honors .gitignore rules:
// the system-wide and user-global patterns are loaded immediately,
// and each directory's own .gitignore is loaded as that directory is
// entered.
func NewGitignoreWalker() (Walker, error) {
	var w gitignoreWalker
	if err := w.loadGlobalGitignore(); err != nil {
		return nil, err
	}
	return &w, nil
}

func (w *gitignoreWalker) loadGlobalGitignore() error {
	fsys := osfs.New("/")
	system, err := gitignore.LoadSystemPatterns(fsys)
	if err != nil {
		return err
	}
	global, err := gitignore.LoadGlobalPatterns(fsys)
	if err != nil {
		return err
	}
	ps := global
	if len(system) != 0 {
		ps = append(system, global...)
	}
	w.ps = ps
	w.m = gitignore.NewMatcher(ps)
	return nil
}

// readGitignore reads the .gitignore file in the given directory, if
// one exists, appending its patterns to w.ps.
func (w *gitignoreWalker) readGitignore(path string, pathSplit []string) error {
	f, err := os.Open(filepath.Join(path, ".gitignore"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			err = nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "#") && len(strings.TrimSpace(line)) > 0 {
			w.ps = append(w.ps, gitignore.ParsePattern(line, pathSplit))
		}
	}
	w.m = gitignore.NewMatcher(w.ps)
	return s.Err()
}

// Walk walks the tree rooted at root, calling fn for each entry,
// including root itself. Symbolic links are not followed, root
// included: a root that is a symlink is passed to fn as a single
// non-directory entry and nothing beneath it is visited.
func (w *gitignoreWalker) Walk(root string, fn Func) error {
	info, err := os.Lstat(root)
	if err != nil {
		return fn(root, nil, err)
	}
	err = w.walk(root, split(root), &statDirEntry{info}, fn)
	if err == SkipDir {
		return nil
	}
	return err
}

func (w *gitignoreWalker) walk(path string, pathSplit []string, d fs.DirEntry, fn Func) error {
	if err := fn(path, d, nil); err != nil || !d.IsDir() {
		if err == SkipDir && d.IsDir() {
			err = nil
		}
		return err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if err := fn(path, d, err); err != nil {
			return err
		}
	}

	mark := len(w.ps)
	if err := w.readGitignore(path, pathSplit); err != nil {
		if err := fn(path, d, err); err != nil {
			return err
		}
	}

	for _, entry := range entries {
		name := entry.Name()
		childPath := filepath.Join(path, name)
		childSplit := append(pathSplit, name)
		if w.m.Match(childSplit, entry.IsDir()) {
			log.Printf("skipped %s: excluded by gitignore", childPath)
			continue
		}
		if err := w.walk(childPath, childSplit, entry, fn); err != nil {
			if err == SkipDir {
				break
			}
			return err
		}
	}

	w.ps = w.ps[:mark]
	return nil
}

type statDirEntry struct {
	info fs.FileInfo
}

func (d *statDirEntry) Name() string               { return d.info.Name() }
func (d *statDirEntry) IsDir() bool                { return d.info.IsDir() }
func (d *statDirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d *statDirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

// split splits a path into its components, separated by the OS path
// separator.
func split(path string) []string {
	sep := string(os.PathSeparator)
	if path == sep {
		return []string{}
	}
	return strings.Split(strings.TrimPrefix(path, sep), sep)
}
