package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devctx/knowctx/internal/bm25"
	"github.com/devctx/knowctx/pkg/types"
)

func mmrResult(id, content string, score float64) types.RetrievalResult {
	return types.RetrievalResult{
		Chunk: types.EmbeddedChunk{
			Chunk: types.Chunk{ID: id, DocumentID: "doc-" + id, Content: content},
		},
		Score: score,
		ScoreBreakdown: types.ScoreBreakdown{
			Recency:   1,
			Diversity: 1,
			Combined:  score,
		},
	}
}

func TestMMR_SeedsWithHighestScore(t *testing.T) {
	candidates := []types.RetrievalResult{
		mmrResult("top", "the best match by far", 0.9),
		mmrResult("second", "a weaker match", 0.5),
		mmrResult("third", "an even weaker match", 0.3),
	}

	selected := maximalMarginalRelevance(candidates, 2, 0.5)
	require.Len(t, selected, 2)

	assert.Equal(t, "top", selected[0].Chunk.ID)
	// The seed has nothing selected to overlap with
	assert.Equal(t, 1.0, selected[0].ScoreBreakdown.Diversity)
}

func TestMMR_PenalizesNearDuplicates(t *testing.T) {
	// Two restatements of the same passage and one genuinely different
	// chunk. The duplicate outscores the different chunk on relevance, but
	// diversity sampling must prefer novelty.
	candidates := []types.RetrievalResult{
		mmrResult("orig", "parse the config file and validate required fields", 0.9),
		mmrResult("dup", "parse the config file and validate required fields again", 0.85),
		mmrResult("novel", "database migration rollback strategy", 0.6),
	}

	selected := maximalMarginalRelevance(candidates, 2, 0.9)
	require.Len(t, selected, 2)

	assert.Equal(t, "orig", selected[0].Chunk.ID)
	assert.Equal(t, "novel", selected[1].Chunk.ID)
}

func TestMMR_LowWeightKeepsRelevanceOrder(t *testing.T) {
	candidates := []types.RetrievalResult{
		mmrResult("orig", "parse the config file and validate required fields", 0.9),
		mmrResult("dup", "parse the config file and validate required fields again", 0.85),
		mmrResult("novel", "database migration rollback strategy", 0.2),
	}

	selected := maximalMarginalRelevance(candidates, 2, 0.1)
	require.Len(t, selected, 2)

	assert.Equal(t, "orig", selected[0].Chunk.ID)
	assert.Equal(t, "dup", selected[1].Chunk.ID)
}

func TestMMR_NoDuplicateSelections(t *testing.T) {
	candidates := make([]types.RetrievalResult, 0, 8)
	for i := 0; i < 8; i++ {
		candidates = append(candidates, mmrResult(
			string(rune('a'+i)),
			"every candidate restates the same passage",
			0.5,
		))
	}

	selected := maximalMarginalRelevance(candidates, 8, 1.0)
	require.Len(t, selected, 8)

	seen := map[string]bool{}
	for _, r := range selected {
		assert.False(t, seen[r.Chunk.ID])
		seen[r.Chunk.ID] = true
	}
}

func TestMMR_LimitBeyondCandidates(t *testing.T) {
	candidates := []types.RetrievalResult{
		mmrResult("a", "only one candidate", 0.4),
	}

	selected := maximalMarginalRelevance(candidates, 10, 0.5)
	assert.Len(t, selected, 1)
}

func TestMMR_DiversityRecordsOverlapAtSelection(t *testing.T) {
	candidates := []types.RetrievalResult{
		mmrResult("a", "alpha beta gamma delta", 0.9),
		mmrResult("b", "alpha beta gamma delta", 0.8),
	}

	selected := maximalMarginalRelevance(candidates, 2, 0.1)
	require.Len(t, selected, 2)

	// Identical token sets overlap completely: diversity = 1 - 1 = 0
	assert.Equal(t, 1.0, selected[0].ScoreBreakdown.Diversity)
	assert.InDelta(t, 0.0, selected[1].ScoreBreakdown.Diversity, 1e-9)
}

func TestJaccard(t *testing.T) {
	a := bm25.TokenSet("alpha beta gamma")
	b := bm25.TokenSet("beta gamma delta")

	// Two shared tokens out of four distinct
	assert.InDelta(t, 0.5, jaccard(a, b), 1e-9)

	assert.Equal(t, 1.0, jaccard(a, a))
	assert.Equal(t, 0.0, jaccard(a, bm25.TokenSet("")))
	assert.Equal(t, 0.0, jaccard(bm25.TokenSet(""), bm25.TokenSet("")))
}
