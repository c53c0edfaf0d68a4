package types

// RetrievalFilters narrows the candidate set before scoring. All filter
// fields reference document-level metadata; resolving them requires a
// document lookup joined in by the caller.
type RetrievalFilters struct {
	SourceTypes  []SourceType  `json:"sourceTypes,omitempty"`
	Languages    []string      `json:"languages,omitempty"`
	Frameworks   []string      `json:"frameworks,omitempty"`
	QualityTiers []QualityTier `json:"qualityTiers,omitempty"`
	Repositories []string      `json:"repositories,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
}

// Empty reports whether no filter field is set
func (f *RetrievalFilters) Empty() bool {
	if f == nil {
		return true
	}
	return len(f.SourceTypes) == 0 &&
		len(f.Languages) == 0 &&
		len(f.Frameworks) == 0 &&
		len(f.QualityTiers) == 0 &&
		len(f.Repositories) == 0 &&
		len(f.Tags) == 0
}

// RetrievalOptions controls result shaping
type RetrievalOptions struct {
	// Limit is the maximum number of results to return. Must be > 0.
	Limit int `json:"limit"`

	// MinScore drops results with a combined score below it. Must be in [0, 1].
	MinScore float64 `json:"minScore"`

	// IncludeMetadata controls whether chunk metadata is carried on results.
	IncludeMetadata bool `json:"includeMetadata"`

	// DiversityWeight is the MMR trade-off between relevance and novelty.
	// Must be in [0, 1]; 0 disables diversity sampling entirely.
	DiversityWeight float64 `json:"diversityWeight"`

	// Rerank signals intent to run an external reranker on the response.
	// The engine records it but never acts on it.
	Rerank bool `json:"rerank"`
}

// DefaultRetrievalOptions returns the options used when a query carries none
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{
		Limit:           10,
		MinScore:        0,
		IncludeMetadata: true,
		DiversityWeight: 0.3,
	}
}

// Validate rejects out-of-range options with a ValidationError
func (o *RetrievalOptions) Validate() error {
	if o.Limit <= 0 {
		return &ValidationError{Field: "limit", Reason: "must be greater than zero"}
	}
	if o.MinScore < 0 || o.MinScore > 1 {
		return &ValidationError{Field: "minScore", Reason: "must be between 0 and 1"}
	}
	if o.DiversityWeight < 0 || o.DiversityWeight > 1 {
		return &ValidationError{Field: "diversityWeight", Reason: "must be between 0 and 1"}
	}
	return nil
}

// RetrievalQuery is a free-text query with optional filters and options
type RetrievalQuery struct {
	Text    string            `json:"text"`
	Filters *RetrievalFilters `json:"filters,omitempty"`
	Options *RetrievalOptions `json:"options,omitempty"`
}

// EffectiveOptions returns the query's options, or defaults when unset
func (q *RetrievalQuery) EffectiveOptions() RetrievalOptions {
	if q.Options == nil {
		return DefaultRetrievalOptions()
	}
	return *q.Options
}
