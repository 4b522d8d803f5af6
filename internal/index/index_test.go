package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kcsearch/kcs/internal/trigram"
	"github.com/kcsearch/kcs/internal/walk"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	return root
}

func TestCreateLoadRoundTrip(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "hello world",
		"b.txt": "goodbye world",
	})
	idxPath := filepath.Join(t.TempDir(), "index")

	ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	defer ix.Close()

	require.EqualValues(t, 2, ix.DocumentCount())
	names, err := ix.Names()
	require.NoError(t, err)
	require.Len(t, names, 2)

	reloaded, err := Load(idxPath)
	require.NoError(t, err)
	defer reloaded.Close()
	require.Equal(t, ix.DocumentCount(), reloaded.DocumentCount())
	require.Equal(t, ix.NgramCount(), reloaded.NgramCount())
}

func TestPostingListFindsEveryTrigramIncludingFirstAndLast(t *testing.T) {
	root := writeTree(t, map[string]string{
		"doc.txt": "hello world",
	})
	idxPath := filepath.Join(t.TempDir(), "index")
	ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	defer ix.Close()

	tri, err := trigram.Extract(strings.NewReader("hello world"))
	require.NoError(t, err)
	require.NotEmpty(t, tri)

	for t0 := range tri {
		bm, ok, err := ix.PostingList(t0)
		require.NoError(t, err)
		require.Truef(t, ok, "trigram %q should be found", t0)
		require.True(t, bm.Get(0))
	}
}

func TestPostingListAcrossTroublesomeNgramCounts(t *testing.T) {
	// ngram_count values where a naive asymmetric-midpoint binary
	// search loses either the first or the last record once the
	// window has narrowed to size 1 or 2. Each content string is a
	// run of distinct lowercase letters, so every 3-byte window is a
	// distinct, already-sorted trigram and the posting table has
	// exactly len(content)-2 records.
	for _, n := range []int{3, 4, 9, 10, 11} {
		content := "abcdefghijklmnopqrstuvwxyz"[:n+2]
		root := writeTree(t, map[string]string{"doc.txt": content})
		idxPath := filepath.Join(t.TempDir(), "index")
		ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
		require.NoError(t, err)

		tri, err := trigram.Extract(strings.NewReader(content))
		require.NoError(t, err)
		require.Len(t, tri, n)

		for t0 := range tri {
			bm, ok, err := ix.PostingList(t0)
			require.NoErrorf(t, err, "ngram_count=%d", n)
			require.Truef(t, ok, "ngram_count=%d: trigram %q should be found", n, t0)
			require.True(t, bm.Get(0))
		}
		require.NoError(t, ix.Close())
	}
}

func TestPostingListReportsNotFound(t *testing.T) {
	root := writeTree(t, map[string]string{
		"doc.txt": "hello world",
	})
	idxPath := filepath.Join(t.TempDir(), "index")
	ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	defer ix.Close()

	_, ok, err := ix.PostingList(trigram.Trigram{'z', 'z', 'z'})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateSkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.dat"), []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01, 0x02}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "text.txt"), []byte("some text"), 0o644))

	idxPath := filepath.Join(t.TempDir(), "index")
	ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	defer ix.Close()

	require.EqualValues(t, 1, ix.DocumentCount())
	name, err := ix.Name(0)
	require.NoError(t, err)
	require.Contains(t, name, "text.txt")
}

func TestUpdateDetectsModifiedFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"doc.txt": "original content",
	})
	idxPath := filepath.Join(t.TempDir(), "index")
	ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	defer ix.Close()

	changed, err := Update(ix, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	require.False(t, changed)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.txt"), []byte("new unique zzqqxx content"), 0o644))
	require.NoError(t, os.Chtimes(filepath.Join(root, "doc.txt"), future, future))

	changed, err = Update(ix, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	require.True(t, changed)

	_, ok, err := ix.PostingList(trigram.Trigram{'z', 'z', 'q'})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestUpdateDropsRemovedFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.txt":   "alpha beta gamma",
		"delete.txt": "unique deleteme content",
	})
	idxPath := filepath.Join(t.TempDir(), "index")
	ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	defer ix.Close()
	require.EqualValues(t, 2, ix.DocumentCount())

	require.NoError(t, os.Remove(filepath.Join(root, "delete.txt")))
	changed, err := Update(ix, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.EqualValues(t, 1, ix.DocumentCount())
}

func TestQueryRanksExactPhraseAboveLooseTerms(t *testing.T) {
	root := writeTree(t, map[string]string{
		"phrase.txt": "the quick brown fox",
		"loose.txt":  "fox is quick, brown is the color",
	})
	idxPath := filepath.Join(t.TempDir(), "index")
	ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	defer ix.Close()

	results, err := ix.Query([]string{"quick", "brown", "fox"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Contains(t, results[0].Path, "phrase.txt")
}

func TestQueryCapsAtFiveResults(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 8; i++ {
		files[string(rune('a'+i))+".txt"] = "shared needle content"
	}
	root := writeTree(t, files)
	idxPath := filepath.Join(t.TempDir(), "index")
	ix, err := Create(idxPath, root, walk.NewPlainWalker(), nil)
	require.NoError(t, err)
	defer ix.Close()

	results, err := ix.Query([]string{"needle"})
	require.NoError(t, err)
	require.LessOrEqual(t, len(results), 5)
}
