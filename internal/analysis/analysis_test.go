package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "whitespace only", in: " \t\n ", want: []string{}},
		{name: "lowercase and edges", in: "Thanks, so MUCH!", want: []string{"thanks", "so", "much"}},
		{name: "markup replaced", in: "**bold** and [link](url)", want: []string{"bold", "and", "link", "url"}},
		{name: "numbers and short pieces dropped", in: "a 42 3.5 ok x", want: []string{"ok"}},
		{name: "inner apostrophe kept", in: "don’t 'quote' it's", want: []string{"don't", "quote", "it's"}},
		{name: "collapses runs", in: "hey   there\n\nfriend...", want: []string{"hey", "there", "friend"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestRemoveStopWords(t *testing.T) {
	got := RemoveStopWords([]string{"thanks", "for", "the", "a", "2024", "reaching", "out", "x"})
	require.Equal(t, []string{"thanks", "reaching"}, got)
	require.True(t, IsStopWord("the"))
	require.False(t, IsStopWord("thanks"))
	require.Greater(t, len(stopWords), 300)
}

func TestNGrams(t *testing.T) {
	tokens := []string{"thanks", "for", "the", "help", "of", "the", "team"}
	require.Equal(t, []string{"thanks for", "the help", "help of", "the team"}, NGrams(tokens, 2))
	require.Equal(t, []string{"thanks for the", "for the help", "the help of", "help of the", "of the team"}, NGrams(tokens, 3))
	require.Empty(t, NGrams([]string{"hi"}, 2))
	require.Empty(t, NGrams(nil, 3))
	require.Equal(t, []string{"coffee time", "time coffee", "coffee time"}, NGrams([]string{"coffee", "time", "coffee", "time"}, 2))
}

func TestNGramsShorterThanWindow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 3).Draw(rt, "n")
		tokens := rapid.SliceOfN(rapid.StringMatching(`[a-z]{2,6}`), 0, n-1).Draw(rt, "tokens")
		require.Empty(rt, NGrams(tokens, n))
	})
}

func TestNGramsStopWordRule(t *testing.T) {
	vocab := []string{"the", "of", "for", "and", "thanks", "coffee", "meeting", "tomorrow"}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 3).Draw(rt, "n")
		tokens := rapid.SliceOf(rapid.SampledFrom(vocab)).Draw(rt, "tokens")
		var want []string
		for i := 0; i+n <= len(tokens); i++ {
			window := tokens[i : i+n]
			content := false
			for _, tok := range window {
				if !IsStopWord(tok) {
					content = true
				}
			}
			if content {
				want = append(want, strings.Join(window, " "))
			}
		}
		got := NGrams(tokens, n)
		require.Len(rt, got, len(want))
		for i := range want {
			require.Equal(rt, want[i], got[i])
		}
	})
}

func TestRank(t *testing.T) {
	items := []string{"pear", "apple", "pear", "fig", "apple", "kiwi"}
	require.Equal(t, []Ranked[string]{
		{Item: "apple", Count: 2},
		{Item: "pear", Count: 2},
		{Item: "fig", Count: 1},
	}, Rank(items, 3))
	require.Equal(t, []string{"apple", "pear", "fig", "kiwi"}, TopK(items, 10))
	require.Nil(t, TopK(items, 0))
	require.Nil(t, TopK([]string{}, 3))
	require.Equal(t, []string{"apple", "pear"}, TopKMin(items, 5, 2))
	require.Nil(t, TopKMin(items, 0, 1))
}

func TestRankDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		items := rapid.SliceOf(rapid.StringMatching(`[a-e]{1,2}`)).Draw(rt, "items")
		k := rapid.IntRange(0, 12).Draw(rt, "k")
		first := Rank(items, k)
		shuffled := rapid.Permutation(items).Draw(rt, "shuffled")
		second := Rank(shuffled, k)
		require.Equal(rt, first, second)
		require.LessOrEqual(rt, len(first), k)
		for i := 1; i < len(first); i++ {
			prev, cur := first[i-1], first[i]
			if prev.Count == cur.Count {
				require.Less(rt, prev.Item, cur.Item)
				continue
			}
			require.Greater(rt, prev.Count, cur.Count)
		}
	})
}
