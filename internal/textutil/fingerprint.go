package textutil

import "math"

// Fingerprint represents a term-frequency vector for text similarity comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Similarity computes the cosine similarity between two fingerprints.
// Nil fingerprints score zero.
func (f *Fingerprint) Similarity(other *Fingerprint) float64 {
	if f == nil || other == nil || f.norm == 0 || other.norm == 0 {
		return 0
	}
	small, large := f, other
	if len(large.tokens) < len(small.tokens) {
		small, large = large, small
	}
	var dot float64
	for token, count := range small.tokens {
		if otherCount, ok := large.tokens[token]; ok {
			dot += count * otherCount
		}
	}
	return dot / (f.norm * other.norm)
}

// OverlapScore computes the fraction of the query's distinct tokens present
// in the candidate text. Used for ranking fuzzy name matches, where a
// short query against a long keyword blob should still score well.
func OverlapScore(query, candidate string) float64 {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, len(queryTokens))
	for _, token := range queryTokens {
		distinct[token] = struct{}{}
	}
	candidateSet := make(map[string]struct{})
	for _, token := range Tokenize(candidate) {
		candidateSet[token] = struct{}{}
	}
	matched := 0
	for token := range distinct {
		if _, ok := candidateSet[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(distinct))
}
