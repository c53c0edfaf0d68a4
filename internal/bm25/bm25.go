package bm25

import (
	"math"
	"regexp"
	"strings"
)

// Okapi BM25 parameters
const (
	K1 = 1.2
	B  = 0.75

	// minTokenLength drops short tokens; this doubles as a cheap stopword
	// filter ("a", "an", "to", "of", ...)
	minTokenLength = 3
)

var nonWordPattern = regexp.MustCompile(`\W+`)

// Tokenize lowercases text, replaces non-word characters with spaces,
// splits on whitespace, and drops tokens shorter than three characters.
func Tokenize(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), " ")

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) >= minTokenLength {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// TokenSet returns the distinct tokens of text as a set. Used for lexical
// overlap comparisons (Jaccard) in diversity sampling.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// Scores computes normalized Okapi BM25 scores of every document against
// the query. Corpus statistics (average document length, IDF) are computed
// over the given documents only: the candidate population changes per call
// as filters are applied, so nothing is cached across calls.
//
// Scores are normalized to [0, 1] by dividing by the theoretical ceiling
// len(queryTerms) * maxIDF * (K1+1). A query with no surviving tokens
// scores every document 0; that is a defined outcome, not an error.
func Scores(docs []string, query string) []float64 {
	scores := make([]float64, len(docs))

	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 || len(docs) == 0 {
		return scores
	}

	docTokens := make([][]string, len(docs))
	totalLength := 0
	for i, doc := range docs {
		docTokens[i] = Tokenize(doc)
		totalLength += len(docTokens[i])
	}
	avgDocLength := float64(totalLength) / float64(len(docs))

	// Document frequency per query term over the candidate set
	docFreq := make(map[string]int, len(queryTerms))
	for _, term := range queryTerms {
		if _, seen := docFreq[term]; seen {
			continue
		}
		count := 0
		for _, tokens := range docTokens {
			if containsToken(tokens, term) {
				count++
			}
		}
		docFreq[term] = count
	}

	// idf(t) = max(0, ln((N - n_t + 0.5) / (n_t + 0.5) + 1)). A term absent
	// from every candidate gets idf 0 so it contributes nothing, neither to
	// document scores nor to the normalization ceiling.
	n := float64(len(docs))
	idf := make(map[string]float64, len(docFreq))
	maxIDF := 0.0
	for term, freq := range docFreq {
		if freq == 0 {
			idf[term] = 0
			continue
		}
		nt := float64(freq)
		val := math.Log((n-nt+0.5)/(nt+0.5) + 1)
		if val < 0 {
			val = 0
		}
		idf[term] = val
		if val > maxIDF {
			maxIDF = val
		}
	}

	if maxIDF == 0 {
		return scores
	}

	ceiling := float64(len(queryTerms)) * maxIDF * (K1 + 1)

	for i, tokens := range docTokens {
		tf := termFrequencies(tokens)
		docLen := float64(len(tokens))

		var score float64
		for _, term := range queryTerms {
			freq := float64(tf[term])
			if freq == 0 {
				continue
			}
			norm := freq + K1*(1-B+B*(docLen/avgDocLength))
			score += idf[term] * (freq * (K1 + 1)) / norm
		}

		scores[i] = clamp01(score / ceiling)
	}

	return scores
}

func containsToken(tokens []string, term string) bool {
	for _, tok := range tokens {
		if tok == term {
			return true
		}
	}
	return false
}

func termFrequencies(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
