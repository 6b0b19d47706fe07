// Package ranker implements TF-IDF scoring and result ordering.
package ranker

import (
	"math"
	"sort"
)

// ScoredDoc is one ranked match.
type ScoredDoc struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// TermWeights is anything that can report a term frequency, usually a
// *document.Document.
type TermWeights interface {
	TF(term string) float64
}

// IDF is log10(totalDocs / max(docFreq, 1)). A term present in every
// document scores zero; an empty corpus yields zero for every term.
func IDF(totalDocs, docFreq int) float64 {
	if totalDocs <= 0 {
		return 0
	}
	if docFreq < 1 {
		docFreq = 1
	}
	return math.Log10(float64(totalDocs) / float64(docFreq))
}

// Score sums tf(doc, term) * idf(term) over terms. Repeated terms count
// once per occurrence.
func Score(doc TermWeights, terms []string, idf func(term string) float64) float64 {
	var score float64
	for _, term := range terms {
		tf := doc.TF(term)
		if tf == 0 {
			continue
		}
		score += tf * idf(term)
	}
	return score
}

// Rank drops non-positive scores, orders the rest by descending score and
// truncates to limit (limit <= 0 keeps everything). The sort is stable, so
// equal scores keep their input order.
func Rank(docs []ScoredDoc, limit int) []ScoredDoc {
	result := make([]ScoredDoc, 0, len(docs))
	for _, d := range docs {
		if d.Score > 0 {
			result = append(result, d)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
