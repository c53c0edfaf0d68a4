package types

// ScoreBreakdown explains how a result's final score was produced. Every
// result carries one; relevance tuning and regression tests depend on
// inspecting each component.
type ScoreBreakdown struct {
	Semantic  float64 `json:"semantic"`
	Keyword   float64 `json:"keyword"`
	Quality   float64 `json:"quality"`
	Recency   float64 `json:"recency"`
	Diversity float64 `json:"diversity"`
	Combined  float64 `json:"combined"`
}

// RetrievalResult is a single ranked chunk with its score explanation
type RetrievalResult struct {
	Chunk          EmbeddedChunk  `json:"chunk"`
	Score          float64        `json:"score"`
	ScoreBreakdown ScoreBreakdown `json:"scoreBreakdown"`
}

// RetrievalResponse is the ranked answer to a retrieval query
type RetrievalResponse struct {
	Query string `json:"query"`

	Results []RetrievalResult `json:"results"`

	// TotalCandidates counts chunks surviving filters, before thresholding.
	TotalCandidates int `json:"totalCandidates"`

	ProcessingTimeMs float64 `json:"processingTimeMs"`
}

// Validate checks if the result is internally consistent
func (r *RetrievalResult) Validate() error {
	if r.Chunk.ID == "" {
		return ErrInvalidChunkID
	}

	if r.Score < 0 || r.Score > 1 {
		return ErrInvalidScore
	}

	if r.ScoreBreakdown.Combined != r.Score {
		return ErrScoreMismatch
	}

	return nil
}
