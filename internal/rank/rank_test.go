package rank

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestExactPhraseOutranksLooseTerms(t *testing.T) {
	phrase := writeTemp(t, "the quick brown fox jumps")
	loose := writeTemp(t, "brown leaves, quick wind, no fox here")

	phraseScore, phrasePreviews, err := Rank(phrase, []string{"quick", "brown", "fox"}, nil)
	require.NoError(t, err)
	looseScore, _, err := Rank(loose, []string{"quick", "brown", "fox"}, nil)
	require.NoError(t, err)

	require.Greater(t, phraseScore, looseScore)
	require.NotEmpty(t, phrasePreviews)
	require.Equal(t, 1, phrasePreviews[0].Line)
}

func TestNoMatchScoresZero(t *testing.T) {
	path := writeTemp(t, "nothing relevant here")
	score, previews, err := Rank(path, []string{"unrelated"}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, score)
	require.Empty(t, previews)
}

func TestTrigramMatchContributesScore(t *testing.T) {
	path := writeTemp(t, "xyzzyabc")
	score, previews, err := Rank(path, []string{"nomatch"}, [][3]byte{{'y', 'z', 'z'}})
	require.NoError(t, err)
	require.Equal(t, trigramWeight, score)
	require.Len(t, previews, 1)
	require.Equal(t, 1, previews[0].Line)
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	path := writeTemp(t, "Hello World")
	score, previews, err := Rank(path, []string{"hello"}, [][3]byte{{'h', 'e', 'l'}})
	require.NoError(t, err)
	require.Greater(t, score, 0)
	require.Len(t, previews, 1)
	require.Equal(t, "hello world", previews[0].Prefix)
}

func TestPreviewsAreDeduplicated(t *testing.T) {
	path := writeTemp(t, "go go go")
	_, previews, err := Rank(path, []string{"go"}, nil)
	require.NoError(t, err)
	require.Len(t, previews, 1)
}

func TestPreviewsAreSortedByLineNumber(t *testing.T) {
	path := writeTemp(t, "alpha\nbeta\ngamma beta\nalpha")
	_, previews, err := Rank(path, []string{"alpha"}, [][3]byte{{'b', 'e', 't'}})
	require.NoError(t, err)
	require.NotEmpty(t, previews)
	for i := 1; i < len(previews); i++ {
		require.Less(t, previews[i-1].Line, previews[i].Line)
	}
}

func TestLongPreviewIsCappedAt50Bytes(t *testing.T) {
	needle := strings.Repeat("w", 80)
	long := "start " + needle + " end"
	path := writeTemp(t, long)
	_, previews, err := Rank(path, []string{needle}, nil)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	require.LessOrEqual(t, len(previews[0].Prefix), 50)
	require.Equal(t, 1, previews[0].Line)
}
