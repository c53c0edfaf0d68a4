package retriever

import (
	"github.com/devctx/knowctx/pkg/types"
)

// DocumentLookup joins document-level metadata into the filter stage.
// Chunks carry only a document ID; source type, language, frameworks,
// repository, tags, and quality tier live on the document. Implementations
// must be side-effect free for a given call: the engine may invoke them
// once per candidate.
type DocumentLookup interface {
	DocumentMeta(documentID string) (types.DocumentMeta, bool)
}

// MetaMap is an in-memory DocumentLookup. Callers typically materialize it
// from their document store before invoking the engine, which keeps the
// engine itself free of I/O.
type MetaMap map[string]types.DocumentMeta

// DocumentMeta implements DocumentLookup
func (m MetaMap) DocumentMeta(documentID string) (types.DocumentMeta, bool) {
	meta, ok := m[documentID]
	return meta, ok
}

// applyFilters narrows the candidate set before any scoring happens. With
// no filters set, every chunk passes. Filters require a configured lookup;
// rejecting the call beats silently ignoring the filter. A chunk whose
// document is unknown to the lookup cannot be proven to match and is
// excluded.
func (e *Engine) applyFilters(filters *types.RetrievalFilters, chunks []types.EmbeddedChunk) ([]types.EmbeddedChunk, error) {
	if filters.Empty() {
		return chunks, nil
	}

	if e.lookup == nil {
		return nil, types.ErrLookupRequired
	}

	kept := make([]types.EmbeddedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		meta, ok := e.lookup.DocumentMeta(chunk.DocumentID)
		if !ok {
			continue
		}
		if matchesFilters(filters, meta) {
			kept = append(kept, chunk)
		}
	}
	return kept, nil
}

func matchesFilters(f *types.RetrievalFilters, meta types.DocumentMeta) bool {
	if len(f.SourceTypes) > 0 && !containsSourceType(f.SourceTypes, meta.SourceType) {
		return false
	}
	if len(f.Languages) > 0 && !containsString(f.Languages, meta.Language) {
		return false
	}
	if len(f.QualityTiers) > 0 && !containsQuality(f.QualityTiers, meta.Quality) {
		return false
	}
	if len(f.Repositories) > 0 && !containsString(f.Repositories, meta.Repository) {
		return false
	}
	if len(f.Frameworks) > 0 && !intersects(f.Frameworks, meta.Frameworks) {
		return false
	}
	if len(f.Tags) > 0 && !intersects(f.Tags, meta.Tags) {
		return false
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsSourceType(haystack []types.SourceType, needle types.SourceType) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsQuality(haystack []types.QualityTier, needle types.QualityTier) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func intersects(wanted, have []string) bool {
	for _, w := range wanted {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}
