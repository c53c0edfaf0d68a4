package bm25

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and splits",
			input: "Refactor Authentication Flow",
			want:  []string{"refactor", "authentication", "flow"},
		},
		{
			name:  "strips punctuation",
			input: "api-client.retry(count, delay)",
			want:  []string{"api", "client", "retry", "count", "delay"},
		},
		{
			name:  "drops short tokens",
			input: "go to the DB in an hour",
			want:  []string{"the", "hour"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "only punctuation",
			input: "!!! ??? ...",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestTokenSet(t *testing.T) {
	set := TokenSet("auth auth AUTH token")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "auth")
	assert.Contains(t, set, "token")
}

func TestScores_ZeroOverlap(t *testing.T) {
	docs := []string{
		"payment gateway integration with stripe",
		"database connection pooling",
	}

	scores := Scores(docs, "kubernetes ingress controller")
	require.Len(t, scores, 2)
	assert.Equal(t, 0.0, scores[0])
	assert.Equal(t, 0.0, scores[1])
}

func TestScores_EmptyQuery(t *testing.T) {
	docs := []string{"some content here", "more content"}

	// All query tokens are filtered out by the length heuristic
	scores := Scores(docs, "a to of")
	for _, s := range scores {
		assert.Equal(t, 0.0, s)
	}

	scores = Scores(docs, "")
	for _, s := range scores {
		assert.Equal(t, 0.0, s)
	}
}

func TestScores_EmptyCandidates(t *testing.T) {
	scores := Scores(nil, "authentication")
	assert.Empty(t, scores)
}

func TestScores_ExactMatchRanksHighest(t *testing.T) {
	docs := []string{
		"refactor authentication flow for the login service",
		"authentication helpers",
		"frontend styling cleanup",
	}

	scores := Scores(docs, "refactor authentication flow")
	require.Len(t, scores, 3)

	assert.Greater(t, scores[0], scores[1], "full term overlap should outscore partial")
	assert.Greater(t, scores[1], scores[2])
	assert.Equal(t, 0.0, scores[2])
}

func TestScores_InUnitRange(t *testing.T) {
	docs := []string{
		"authentication authentication authentication",
		"authentication",
		"nothing relevant whatsoever",
	}

	scores := Scores(docs, "authentication")
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestScores_LengthNormalization(t *testing.T) {
	// Both documents contain the term once; the far longer document is
	// penalized by the length normalization factor.
	short := "authentication module"
	long := "authentication " + strings.Repeat("padding filler words everywhere ", 50)

	scores := Scores([]string{short, long}, "authentication")
	require.Len(t, scores, 2)
	assert.Greater(t, scores[0], scores[1])
}

func TestScores_TermAbsentEverywhereContributesNothing(t *testing.T) {
	docs := []string{
		"retry logic with exponential backoff",
		"retry handler",
	}

	// "zeppelin" appears nowhere; scores must equal the single-term query,
	// scaled by the doubled normalization ceiling.
	withAbsent := Scores(docs, "retry zeppelin")
	single := Scores(docs, "retry")

	require.Len(t, withAbsent, 2)
	for i := range docs {
		assert.InDelta(t, single[i]/2, withAbsent[i], 1e-9)
	}
}

func TestScores_Deterministic(t *testing.T) {
	docs := []string{
		"graceful shutdown for the http server",
		"http handler middleware chain",
		"server side rendering notes",
	}

	first := Scores(docs, "http server shutdown")
	second := Scores(docs, "http server shutdown")
	assert.Equal(t, first, second)
}
