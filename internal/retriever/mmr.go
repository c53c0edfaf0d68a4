package retriever

import (
	"math"

	"github.com/devctx/knowctx/internal/bm25"
	"github.com/devctx/knowctx/pkg/types"
)

// maximalMarginalRelevance greedily reselects up to limit results, trading
// relevance against novelty so near-duplicate passages cannot dominate the
// output. Candidates must already be sorted descending by score.
//
// Novelty uses Jaccard overlap of tokenized term sets rather than embedding
// similarity: lexical overlap is what near-duplicates actually share, and
// it avoids extra vector math purely for diversity.
//
// The first pick is always the highest-scoring candidate. Each further pick
// maximizes score - diversityWeight * maxSim, where maxSim is the greatest
// overlap with anything already selected. The chosen result records
// 1 - maxSim as its diversity component; that value is an explanation of
// the pick, it never feeds back into later iterations.
func maximalMarginalRelevance(candidates []types.RetrievalResult, limit int, diversityWeight float64) []types.RetrievalResult {
	if limit > len(candidates) {
		limit = len(candidates)
	}

	tokenSets := make([]map[string]struct{}, len(candidates))
	for i := range candidates {
		tokenSets[i] = bm25.TokenSet(candidates[i].Chunk.Content)
	}

	selected := make([]types.RetrievalResult, 0, limit)
	selectedIdx := make([]int, 0, limit)
	used := make([]bool, len(candidates))

	for len(selected) < limit {
		bestIdx := -1
		bestMMR := math.Inf(-1)
		bestMaxSim := 0.0

		for i := range candidates {
			if used[i] {
				continue
			}

			maxSim := 0.0
			for _, sel := range selectedIdx {
				sim := jaccard(tokenSets[i], tokenSets[sel])
				if sim > maxSim {
					maxSim = sim
				}
			}

			// Strict greater keeps the earliest candidate on ties, so
			// selection order is deterministic
			mmrScore := candidates[i].Score - diversityWeight*maxSim
			if mmrScore > bestMMR {
				bestIdx = i
				bestMMR = mmrScore
				bestMaxSim = maxSim
			}
		}

		if bestIdx < 0 {
			break
		}

		result := candidates[bestIdx]
		result.ScoreBreakdown.Diversity = 1 - bestMaxSim
		selected = append(selected, result)
		selectedIdx = append(selectedIdx, bestIdx)
		used[bestIdx] = true
	}

	return selected
}

// jaccard computes |A ∩ B| / |A ∪ B|. Two empty sets share nothing and
// score 0, never NaN.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
